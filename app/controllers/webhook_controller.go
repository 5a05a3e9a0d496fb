package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/DavidKellner/HireLink/app/repository"
	"github.com/DavidKellner/HireLink/internal/pkg/cache"
	"github.com/DavidKellner/HireLink/internal/pkg/env"
	"github.com/DavidKellner/HireLink/internal/pkg/metrics/counter"
	"github.com/DavidKellner/HireLink/internal/pkg/payments"
	"github.com/DavidKellner/HireLink/internal/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// Header carrying the provider's delivery attempt counter; absent on the
// first delivery.
const deliveryAttemptHeader = "Stripe-Delivery-Attempt"

// WebhookController is the HTTP glue for the webhook pipeline: rate limit,
// origin gate and signature check run before any persistence, then the
// processor takes over. The provider only ever sees generic bodies.
type WebhookController struct {
	gate      *payments.OriginGate
	limiter   ratelimit.Limiter
	processor *payments.Processor
	secret    string
}

// NewWebhookController creates a controller from injected collaborators.
func NewWebhookController(gate *payments.OriginGate, limiter ratelimit.Limiter, processor *payments.Processor, secret string) *WebhookController {
	return &WebhookController{
		gate:      gate,
		limiter:   limiter,
		processor: processor,
		secret:    secret,
	}
}

// NewWebhookControllerFromEnv wires the controller against the global DB,
// the env-configured Stripe credentials and the configured rate-limit
// store. RATE_LIMIT_STORE=redis selects the shared counter for
// horizontally scaled deployments; the default memory store is
// per-instance.
func NewWebhookControllerFromEnv() *WebhookController {
	var limiter ratelimit.Limiter
	if strings.EqualFold(env.GetEnv("RATE_LIMIT_STORE", "memory"), "redis") {
		limiter = ratelimit.NewRedisLimiter(cache.GetClient(), ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	}
	repos := repository.GetGlobalRepositories()
	processor := payments.NewProcessor(
		repos.WebhookEvents,
		repos.Subscriptions,
		repos.AgencySubscriptions,
		payments.NewStripeClientFromEnv(),
	)
	return NewWebhookController(
		payments.NewOriginGateFromEnv(),
		limiter,
		processor,
		env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	)
}

// HandleStripeWebhook processes one provider delivery. The raw body is
// copied before anything touches it so signature verification sees the
// exact bytes the provider signed.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	clientAddr := clientAddress(c)

	if !wc.limiter.Allow(c.Context(), clientAddr) {
		_ = counter.AddRejection("rate_limited")
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(wc.limiter.RetryAfter().Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limit_exceeded"})
	}

	if !wc.gate.IsAllowed(clientAddr) {
		_ = counter.AddRejection("origin")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "origin_not_allowed"})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	event, err := payments.VerifyEvent(rawBody, strings.TrimSpace(c.Get("Stripe-Signature")), wc.secret)
	if err != nil {
		_ = counter.AddRejection("signature")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}
	_ = counter.AddDelivery(string(event.Type))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res := wc.processor.Process(ctx, event, payments.RequestMeta{
		ClientAddress: clientAddr,
		RawPayload:    rawBody,
		RetryCount:    deliveryAttempt(c),
	})
	if res.HTTPStatus >= fiber.StatusBadRequest {
		return c.Status(res.HTTPStatus).JSON(fiber.Map{"error": "processing_failed"})
	}

	body := fiber.Map{"received": true}
	if res.Duplicate {
		body["duplicate"] = true
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// clientAddress resolves the caller's network address from the proxy
// headers, falling back to the connection address.
func clientAddress(c *fiber.Ctx) string {
	if fwd := strings.TrimSpace(c.Get(fiber.HeaderXForwardedFor)); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		return real
	}
	return c.IP()
}

func deliveryAttempt(c *fiber.Ctx) int {
	v := strings.TrimSpace(c.Get(deliveryAttemptHeader))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
