package payments

import (
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// VerifyEvent authenticates a webhook delivery against the signing secret
// and returns the typed event. It must be called with the exact raw request
// body: re-serializing a parsed body changes the bytes and invalidates the
// HMAC.
func VerifyEvent(rawBody []byte, signatureHeader, secret string) (stripe.Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		return stripe.Event{}, errors.New("missing signature header")
	}
	if strings.TrimSpace(secret) == "" {
		return stripe.Event{}, errors.New("webhook signing secret is not configured")
	}
	return webhook.ConstructEventWithOptions(rawBody, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
