package counter

import (
	"context"

	"github.com/DavidKellner/HireLink/internal/pkg/cache"
)

const (
	deliveriesKey = "webhook:counters:deliveries"
	rejectionsKey = "webhook:counters:rejections"
)

// AddDelivery increments the pending delivery counter for an event type in Redis
func AddDelivery(eventType string) error {
	return cache.GetClient().HIncrBy(context.Background(), deliveriesKey, eventType, 1).Err()
}

// AddRejection increments the counter for a delivery rejected before processing,
// keyed by the rejection reason (rate_limited, origin, signature)
func AddRejection(reason string) error {
	return cache.GetClient().HIncrBy(context.Background(), rejectionsKey, reason, 1).Err()
}

// Deliveries returns the per-event-type delivery counters
func Deliveries() (map[string]string, error) {
	return cache.GetClient().HGetAll(context.Background(), deliveriesKey).Result()
}

// Rejections returns the per-reason rejection counters
func Rejections() (map[string]string, error) {
	return cache.GetClient().HGetAll(context.Background(), rejectionsKey).Result()
}
