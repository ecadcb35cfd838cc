package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type webhookStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookEventKey(provider, eventID string) string
	Del(ctx context.Context, keys ...string) error
}

// IdempotencyGuard deduplicates webhook deliveries by event id. Stripe
// redelivers events until acknowledged, so the first delivery marks the id
// and later ones are dropped.
type IdempotencyGuard struct {
	store    webhookStore
	ttl      time.Duration
	provider string
}

func NewIdempotencyGuard(store webhookStore, ttl time.Duration, provider string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("webhook store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &IdempotencyGuard{
		store:    store,
		ttl:      ttl,
		provider: provider,
	}, nil
}

// CheckAndMark returns true when the event was already processed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.provider, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook idempotency key: %w", err)
	}
	return !set, nil
}

// Release clears the mark so a failed handler gets a retry on redelivery.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.provider, eventID)
	return g.store.Del(ctx, key)
}
