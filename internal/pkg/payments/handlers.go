package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/DavidKellner/HireLink/app/models"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// Metadata keys the upstream application sets on the checkout session and
// subscription at checkout time.
const (
	metaKeyUserID        = "user_id"
	metaKeyUserType      = "user_type"
	metaKeyPlanType      = "plan_type"
	metaKeyBillingPeriod = "billing_period"
)

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	TrialEnd           int64             `json:"trial_end"`
	CanceledAt         int64             `json:"canceled_at"`
	Metadata           map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// handleCheckoutCompleted is the first writer for a subscription id. The
// checkout event carries only the subscription id, so the full object is
// fetched from the provider before deriving the local record.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var cs checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return &ValidationError{Field: "payload", Reason: "is not valid checkout session JSON"}
	}

	userID, err := userIDFromMetadata(cs.Metadata)
	if err != nil {
		return err
	}
	if cs.Subscription == "" {
		return &ValidationError{Field: "subscription", Reason: "is missing from checkout session"}
	}

	providerSub, err := p.fetcher.GetSubscription(ctx, cs.Subscription)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", cs.Subscription, err)
	}

	sub := deriveSubscription(userID, cs.Metadata, providerSub)
	if sub.ProviderCustomerID == "" {
		sub.ProviderCustomerID = cs.Customer
	}
	if err := p.upsertSubscription(sub); err != nil {
		return err
	}

	if cs.Metadata[metaKeyUserType] == models.UserTypeAgency {
		p.writeAgencyView(sub)
	}
	return nil
}

// handleSubscriptionUpdated applies provider-side subscription changes to
// the existing row. The row is expected from checkout-completed; when
// handler ordering skew means it does not exist yet, the zero-row update is
// a no-op, not an error.
func (p *Processor) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var sp subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sp); err != nil {
		return &ValidationError{Field: "payload", Reason: "is not valid subscription JSON"}
	}
	if sp.ID == "" {
		return &ValidationError{Field: "id", Reason: "is missing from subscription payload"}
	}

	fields := map[string]interface{}{
		"status":         ProviderStatusToSubscriptionStatus(sp.Status),
		"start_date":     epochToTime(sp.CurrentPeriodStart),
		"end_date":       epochToTime(sp.CurrentPeriodEnd),
		"trial_end_date": epochToTime(sp.TrialEnd),
	}
	rows, err := p.subs.UpdateByProviderSubscriptionID(sp.ID, fields)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("subscription %s has no local row yet, skipping update", sp.ID)
	}
	return nil
}

// handleSubscriptionDeleted marks the subscription cancelled. Cancelled is
// terminal.
func (p *Processor) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var sp subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sp); err != nil {
		return &ValidationError{Field: "payload", Reason: "is not valid subscription JSON"}
	}
	if sp.ID == "" {
		return &ValidationError{Field: "id", Reason: "is missing from subscription payload"}
	}

	cancelledAt := epochToTime(sp.CanceledAt)
	if cancelledAt == nil {
		now := p.now()
		cancelledAt = &now
	}
	rows, err := p.subs.UpdateByProviderSubscriptionID(sp.ID, map[string]interface{}{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": cancelledAt,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("subscription %s deleted at provider but unknown locally", sp.ID)
	}
	return nil
}

// handleInvoicePaid activates the subscription. When no local row exists
// (invoice delivered before or without its checkout-completed event) the
// record is reconstructed from the provider's subscription object, the same
// derivation checkout uses. That recovery path keeps state convergent under
// out-of-order delivery.
func (p *Processor) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return &ValidationError{Field: "payload", Reason: "is not valid invoice JSON"}
	}
	if inv.Subscription == "" {
		// One-off invoices carry no subscription; nothing to reconcile.
		log.Printf("invoice %s paid without a subscription reference, ignoring", inv.ID)
		return nil
	}

	_, err := p.subs.GetByProviderSubscriptionID(inv.Subscription)
	if err == nil {
		_, uerr := p.subs.UpdateByProviderSubscriptionID(inv.Subscription, map[string]interface{}{
			"status": models.SubscriptionStatusActive,
		})
		return uerr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	providerSub, err := p.fetcher.GetSubscription(ctx, inv.Subscription)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", inv.Subscription, err)
	}
	userID, err := userIDFromMetadata(providerSub.Metadata)
	if err != nil {
		return err
	}

	sub := deriveSubscription(userID, providerSub.Metadata, providerSub)
	sub.Status = models.SubscriptionStatusActive
	if err := p.upsertSubscription(sub); err != nil {
		return err
	}

	if providerSub.Metadata[metaKeyUserType] == models.UserTypeAgency {
		p.writeAgencyView(sub)
	}
	return nil
}

// handleInvoicePaymentFailed moves the subscription to past_due and records
// the failed invoice without touching billing dates.
func (p *Processor) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return &ValidationError{Field: "payload", Reason: "is not valid invoice JSON"}
	}
	if inv.Subscription == "" {
		log.Printf("invoice %s payment failed without a subscription reference, ignoring", inv.ID)
		return nil
	}

	existing, err := p.subs.GetByProviderSubscriptionID(inv.Subscription)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("payment failed for unknown subscription %s, ignoring", inv.Subscription)
			return nil
		}
		return err
	}

	meta := map[string]string{}
	if existing.Metadata != "" {
		// Best effort; a corrupt blob is replaced rather than propagated.
		_ = json.Unmarshal([]byte(existing.Metadata), &meta)
	}
	meta["last_failed_invoice_id"] = inv.ID
	meta["last_payment_failure_at"] = p.now().UTC().Format(time.RFC3339)

	_, err = p.subs.UpdateByProviderSubscriptionID(inv.Subscription, map[string]interface{}{
		"status":   models.SubscriptionStatusPastDue,
		"metadata": marshalMetadata(meta),
	})
	return err
}

// upsertSubscription inserts the derived record, converting a duplicate-key
// violation on provider_subscription_id into an update of the existing row
// with the same derived fields. Under concurrent duplicate deliveries
// exactly one insert wins and the rest converge through the update path.
func (p *Processor) upsertSubscription(sub *models.Subscription) error {
	err := p.subs.Create(sub)
	if err == nil {
		return nil
	}
	if Classify(err) != ClassDuplicate {
		return err
	}

	_, uerr := p.subs.UpdateByProviderSubscriptionID(sub.ProviderSubscriptionID, map[string]interface{}{
		"user_id":              sub.UserID,
		"plan_id":              sub.PlanID,
		"plan_type":            sub.PlanType,
		"amount_cents":         sub.AmountCents,
		"currency":             sub.Currency,
		"billing_period":       sub.BillingPeriod,
		"status":               sub.Status,
		"start_date":           sub.StartDate,
		"end_date":             sub.EndDate,
		"trial_end_date":       sub.TrialEndDate,
		"provider_customer_id": sub.ProviderCustomerID,
		"metadata":             sub.Metadata,
	})
	return uerr
}

// writeAgencyView writes the denormalized agency dashboard row. The primary
// subscription write already succeeded and is authoritative, so a failure
// here is logged for follow-up but never fails the handler.
func (p *Processor) writeAgencyView(sub *models.Subscription) {
	agencySub := &models.AgencySubscription{
		AgencyID:               sub.UserID,
		PlanType:               sub.PlanType,
		Status:                 sub.Status,
		PaymentStatus:          paymentStatusFor(sub.Status),
		StartsAt:               sub.StartDate,
		ExpiresAt:              sub.EndDate,
		ProviderSubscriptionID: sub.ProviderSubscriptionID,
		ProviderCustomerID:     sub.ProviderCustomerID,
	}
	if err := p.agencySubs.Create(agencySub); err != nil {
		log.Printf("agency subscription view write failed for %s (agency %d): %v", sub.ProviderSubscriptionID, sub.UserID, err)
	}
}

func paymentStatusFor(status string) string {
	switch status {
	case models.SubscriptionStatusActive:
		return "paid"
	case models.SubscriptionStatusPastDue:
		return "overdue"
	default:
		return "pending"
	}
}

func deriveSubscription(userID uint, meta map[string]string, ps *ProviderSubscription) *models.Subscription {
	return &models.Subscription{
		UserID:                 userID,
		PlanID:                 ps.PlanID,
		PlanType:               meta[metaKeyPlanType],
		AmountCents:            ps.AmountCents,
		Currency:               ps.Currency,
		BillingPeriod:          normalizeBillingPeriod(meta[metaKeyBillingPeriod]),
		Status:                 ProviderStatusToSubscriptionStatus(ps.Status),
		StartDate:              epochToTime(ps.CurrentPeriodStart),
		EndDate:                epochToTime(ps.CurrentPeriodEnd),
		TrialEndDate:           epochToTime(ps.TrialEnd),
		ProviderSubscriptionID: ps.ID,
		ProviderCustomerID:     ps.CustomerID,
		Metadata:               marshalMetadata(meta),
	}
}

func userIDFromMetadata(meta map[string]string) (uint, error) {
	raw := meta[metaKeyUserID]
	if raw == "" {
		return 0, &ValidationError{Field: metaKeyUserID, Reason: "is missing from event metadata"}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Field: metaKeyUserID, Reason: "is not a valid user id"}
	}
	return uint(id), nil
}

func marshalMetadata(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(b)
}
