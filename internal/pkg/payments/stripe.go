package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DavidKellner/HireLink/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// ProviderSubscription is the read contract against the provider's
// subscription object: billing period bounds and trial end as epoch seconds
// (0 when absent), the raw provider status string, and the first billed
// item's price.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	TrialEnd           int64
	CanceledAt         int64
	PlanID             string
	AmountCents        int64
	Currency           string
	Metadata           map[string]string
}

// SubscriptionFetcher fetches the full subscription object by provider id.
// The checkout-completed event carries only the id, so the handler needs
// this call to derive amounts and billing dates.
type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
}

// StripeClient talks to the Stripe REST API directly.
type StripeClient struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewStripeClientFromEnv builds the client from STRIPE_API_KEY with a
// bounded request timeout so a slow provider cannot hold a webhook caller
// indefinitely.
func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		APIKey:     strings.TrimSpace(env.GetEnv("STRIPE_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSubscription fetches a subscription object by id.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("STRIPE_API_KEY is not configured")
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + "/subscriptions/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe subscription fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	type rawSubscription struct {
		ID                 string `json:"id"`
		Customer           string `json:"customer"`
		Status             string `json:"status"`
		CurrentPeriodStart int64  `json:"current_period_start"`
		CurrentPeriodEnd   int64  `json:"current_period_end"`
		TrialEnd           int64  `json:"trial_end"`
		CanceledAt         int64  `json:"canceled_at"`
		Items              struct {
			Data []struct {
				Price struct {
					ID         string `json:"id"`
					UnitAmount int64  `json:"unit_amount"`
					Currency   string `json:"currency"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
		Metadata map[string]string `json:"metadata"`
	}

	var raw rawSubscription
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe subscription response missing id")
	}

	out := &ProviderSubscription{
		ID:                 raw.ID,
		CustomerID:         raw.Customer,
		Status:             raw.Status,
		CurrentPeriodStart: raw.CurrentPeriodStart,
		CurrentPeriodEnd:   raw.CurrentPeriodEnd,
		TrialEnd:           raw.TrialEnd,
		CanceledAt:         raw.CanceledAt,
		Metadata:           raw.Metadata,
	}
	// Amount and currency come from the first billed item.
	if len(raw.Items.Data) > 0 {
		price := raw.Items.Data[0].Price
		out.PlanID = price.ID
		out.AmountCents = price.UnitAmount
		out.Currency = strings.ToUpper(price.Currency)
	}
	return out, nil
}
