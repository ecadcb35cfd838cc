package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

type resolvedCall struct {
	intentID string
	status   enums.PaymentStatus
	reason   string
	terminal bool
}

type fakeResolver struct {
	calls []resolvedCall
	err   error
}

func (f *fakeResolver) ResolveByIntent(_ context.Context, intentID string, status enums.PaymentStatus, reason string, terminal bool) error {
	f.calls = append(f.calls, resolvedCall{intentID: intentID, status: status, reason: reason, terminal: terminal})
	return f.err
}

type fakeWebhookStore struct {
	marked  map[string]bool
	deleted []string
	setErr  error
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{marked: map[string]bool{}}
}

func (f *fakeWebhookStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.marked[key] {
		return false, nil
	}
	f.marked[key] = true
	return true, nil
}

func (f *fakeWebhookStore) WebhookEventKey(provider, eventID string) string {
	return "vg:webhook:evt:" + provider + ":" + eventID
}

func (f *fakeWebhookStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.marked, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func newWebhookService(t *testing.T) (*Service, *fakeResolver, *fakeWebhookStore) {
	t.Helper()
	store := newFakeWebhookStore()
	guard, err := NewIdempotencyGuard(store, 24*time.Hour, "stripe")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	resolver := &fakeResolver{}
	svc, err := NewService(ServiceParams{Resolver: resolver, Guard: guard})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, resolver, store
}

func intentEvent(t *testing.T, eventType stripe.EventType, intent stripe.PaymentIntent) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + string(eventType),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEvent_Succeeded(t *testing.T) {
	svc, resolver, _ := newWebhookService(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, stripe.PaymentIntent{ID: "pi_1"})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(resolver.calls) != 1 {
		t.Fatalf("resolver calls = %d", len(resolver.calls))
	}
	call := resolver.calls[0]
	if call.intentID != "pi_1" || call.status != enums.PaymentStatusSucceeded || call.terminal {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestHandleEvent_PaymentFailedCarriesDeclineCode(t *testing.T) {
	svc, resolver, _ := newWebhookService(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, stripe.PaymentIntent{
		ID:               "pi_1",
		LastPaymentError: &stripe.Error{DeclineCode: "insufficient_funds"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	call := resolver.calls[0]
	if call.status != enums.PaymentStatusFailed || call.reason != "insufficient_funds" || call.terminal {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestHandleEvent_CanceledIsTerminal(t *testing.T) {
	svc, resolver, _ := newWebhookService(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentCanceled, stripe.PaymentIntent{
		ID:                 "pi_1",
		CancellationReason: stripe.PaymentIntentCancellationReasonAbandoned,
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	call := resolver.calls[0]
	if !call.terminal || call.reason != "abandoned" {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestHandleEvent_DuplicateDelivery(t *testing.T) {
	svc, resolver, _ := newWebhookService(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, stripe.PaymentIntent{ID: "pi_1"})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if len(resolver.calls) != 1 {
		t.Fatalf("duplicate delivery reached resolver: %d calls", len(resolver.calls))
	}
}

func TestHandleEvent_HandlerErrorReleasesMark(t *testing.T) {
	svc, resolver, store := newWebhookService(t)
	resolver.err = errors.New("db down")
	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, stripe.PaymentIntent{ID: "pi_1"})

	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected error")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("mark not released: %v", store.deleted)
	}

	// Redelivery after the failure must reach the resolver again.
	resolver.err = nil
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(resolver.calls) != 2 {
		t.Fatalf("resolver calls = %d", len(resolver.calls))
	}
}

func TestHandleEvent_UnknownTypeIgnored(t *testing.T) {
	svc, resolver, store := newWebhookService(t)
	event := intentEvent(t, stripe.EventTypeCustomerCreated, stripe.PaymentIntent{ID: "pi_1"})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(resolver.calls) != 0 {
		t.Fatal("unknown event reached resolver")
	}
	if len(store.marked) != 0 {
		t.Fatal("unknown event consumed an idempotency slot")
	}
}
