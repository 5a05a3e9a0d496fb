package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DavidKellner/HireLink/app/models"
	"github.com/DavidKellner/HireLink/app/repository"
	"github.com/stripe/stripe-go/v82"
)

// Error codes written to the ledger on failure. External monitoring keys
// off these plus the failed status; permanent failures are acknowledged to
// the provider and need manual remediation.
const (
	ErrCodeValidation     = "validation_error"
	ErrCodeTransientInfra = "transient_infra_error"
	ErrCodePermanentStore = "permanent_store_error"
)

// ValidationError marks a payload missing a required correlation field
// (e.g. the internal user id). It is permanent: the provider retrying the
// same payload can never supply the missing field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid webhook payload: %s %s", e.Field, e.Reason)
}

// RequestMeta carries per-delivery request data into the ledger.
type RequestMeta struct {
	ClientAddress string
	RawPayload    []byte
	RetryCount    int
}

// Result is what the HTTP layer needs to answer the provider. Bodies stay
// generic; internal error detail lives only in the ledger and the log.
type Result struct {
	HTTPStatus int
	Duplicate  bool
}

// Processor runs the webhook pipeline from ledger insert through handler
// dispatch to ledger finalization. Each delivery is processed
// synchronously; correctness under concurrent duplicate deliveries rests on
// the store's unique indexes, not on any application lock.
type Processor struct {
	events     repository.WebhookEventRepository
	subs       repository.SubscriptionRepository
	agencySubs repository.AgencySubscriptionRepository
	fetcher    SubscriptionFetcher

	now func() time.Time
}

// NewProcessor creates a processor from injected stores and provider client.
func NewProcessor(
	events repository.WebhookEventRepository,
	subs repository.SubscriptionRepository,
	agencySubs repository.AgencySubscriptionRepository,
	fetcher SubscriptionFetcher,
) *Processor {
	return &Processor{
		events:     events,
		subs:       subs,
		agencySubs: agencySubs,
		fetcher:    fetcher,
		now:        time.Now,
	}
}

// Process runs one verified event through the pipeline.
//
// The ledger insert doubles as the idempotency check: if the event id is
// already present the delivery is acknowledged as a duplicate without
// re-running handlers. If the insert itself fails the pipeline fails
// closed with a non-2xx so the provider redelivers; an unaudited
// processing pass would be worse than a delayed retry.
func (p *Processor) Process(ctx context.Context, event stripe.Event, meta RequestMeta) Result {
	started := p.now()

	record := &models.WebhookEvent{
		EventID:             event.ID,
		EventType:           string(event.Type),
		ProviderCreatedAt:   epochToTime(event.Created),
		ReceivedAt:          started,
		ClientAddress:       meta.ClientAddress,
		RawPayload:          string(meta.RawPayload),
		Status:              models.WebhookStatusProcessing,
		ProcessingStartedAt: started,
		RetryCount:          meta.RetryCount,
	}

	created, stored, err := p.events.CreateIfNotExists(record)
	if err != nil {
		log.Printf("webhook ledger insert failed for event %s: %v", event.ID, err)
		return Result{HTTPStatus: 500}
	}
	if !created {
		// Already processed, or a concurrent delivery holds the row.
		log.Printf("duplicate webhook delivery for event %s, acknowledging without processing", event.ID)
		return Result{HTTPStatus: 200, Duplicate: true}
	}

	handlerErr := p.dispatch(ctx, event)

	outcome := p.outcomeFor(event, handlerErr)
	p.finalize(stored.ID, started, outcome)
	return Result{HTTPStatus: outcome.ResponseStatus}
}

func (p *Processor) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		return p.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event)
	case "invoice.paid":
		return p.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return p.handleInvoicePaymentFailed(ctx, event)
	default:
		// The provider adds event types over time; unknown ones are
		// acknowledged so deliveries are never rejected for novelty.
		log.Printf("ignoring webhook event %s with unhandled type %s", event.ID, event.Type)
		return nil
	}
}

// outcomeFor translates a handler result into the ledger outcome plus the
// HTTP status answered to the provider. Transient failures return non-2xx
// so the provider retries; validation and permanent store failures are
// acknowledged with 200 to stop an unwinnable retry loop and flagged via
// the failed ledger row.
func (p *Processor) outcomeFor(event stripe.Event, handlerErr error) repository.WebhookEventOutcome {
	if handlerErr == nil {
		return repository.WebhookEventOutcome{
			Status:         models.WebhookStatusSuccess,
			ResponseStatus: 200,
		}
	}

	var verr *ValidationError
	if errors.As(handlerErr, &verr) {
		log.Printf("webhook event %s (%s) failed validation: %v", event.ID, event.Type, handlerErr)
		return repository.WebhookEventOutcome{
			Status:         models.WebhookStatusFailed,
			ResponseStatus: 200,
			ErrorCode:      ErrCodeValidation,
			ErrorMessage:   handlerErr.Error(),
		}
	}

	switch Classify(handlerErr) {
	case ClassDuplicate:
		// Handlers convert duplicate inserts to updates themselves; a
		// duplicate surfacing here means state already converged.
		return repository.WebhookEventOutcome{
			Status:         models.WebhookStatusSuccess,
			ResponseStatus: 200,
		}
	case ClassTransient:
		log.Printf("webhook event %s (%s) hit transient failure, provider will retry: %v", event.ID, event.Type, handlerErr)
		return repository.WebhookEventOutcome{
			Status:         models.WebhookStatusFailed,
			ResponseStatus: 500,
			ErrorCode:      ErrCodeTransientInfra,
			ErrorMessage:   handlerErr.Error(),
		}
	default:
		log.Printf("webhook event %s (%s) failed permanently, acknowledging to stop retries: %v", event.ID, event.Type, handlerErr)
		return repository.WebhookEventOutcome{
			Status:         models.WebhookStatusFailed,
			ResponseStatus: 200,
			ErrorCode:      ErrCodePermanentStore,
			ErrorMessage:   handlerErr.Error(),
		}
	}
}

// finalize records the terminal ledger state. It runs for every delivery
// that managed to create a ledger row, success or failure, so no row is
// left in processing state short of a process crash.
func (p *Processor) finalize(recordID uint, started time.Time, outcome repository.WebhookEventOutcome) {
	completed := p.now()
	outcome.CompletedAt = completed
	outcome.DurationMs = completed.Sub(started).Milliseconds()
	if err := p.events.Finalize(recordID, outcome); err != nil {
		log.Printf("failed to finalize webhook ledger record %d: %v", recordID, err)
	}
}
