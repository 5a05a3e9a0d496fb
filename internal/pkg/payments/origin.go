package payments

import (
	"net"
	"strings"

	"github.com/DavidKellner/HireLink/internal/pkg/env"
)

// Stripe's published webhook egress addresses. Deliveries have to come from
// one of these unless enforcement is disabled.
// https://stripe.com/files/ips/ips_webhooks.txt
var stripeWebhookAddresses = []string{
	"3.18.12.63",
	"3.130.192.231",
	"13.235.14.237",
	"13.235.122.149",
	"18.211.135.69",
	"35.154.171.200",
	"52.15.183.38",
	"54.88.130.119",
	"54.88.130.237",
	"54.187.174.169",
	"54.187.205.235",
	"54.187.216.72",
}

// Loopback addresses are always admitted for local testing with the Stripe
// CLI forwarder.
var loopbackAddresses = []string{"127.0.0.1", "::1"}

// OriginGate validates the calling network address against the provider's
// allowlist. It must run before signature verification and before any
// ledger write, so unauthenticated calls consume no storage.
type OriginGate struct {
	allowed map[string]struct{}
	enforce bool
}

// NewOriginGate builds a gate over the provider allowlist plus loopback.
func NewOriginGate(enforce bool) *OriginGate {
	allowed := make(map[string]struct{}, len(stripeWebhookAddresses)+len(loopbackAddresses))
	for _, a := range stripeWebhookAddresses {
		allowed[a] = struct{}{}
	}
	for _, a := range loopbackAddresses {
		allowed[a] = struct{}{}
	}
	return &OriginGate{allowed: allowed, enforce: enforce}
}

// NewOriginGateFromEnv builds the gate with enforcement controlled by
// WEBHOOK_ORIGIN_CHECK_DISABLED. Enforcement is the default.
func NewOriginGateFromEnv() *OriginGate {
	disabled := strings.EqualFold(strings.TrimSpace(env.GetEnv("WEBHOOK_ORIGIN_CHECK_DISABLED", "false")), "true")
	return NewOriginGate(!disabled)
}

// IsAllowed reports whether the caller's address may deliver webhooks.
func (g *OriginGate) IsAllowed(address string) bool {
	if !g.enforce {
		return true
	}
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		return false
	}
	_, ok := g.allowed[ip.String()]
	return ok
}
