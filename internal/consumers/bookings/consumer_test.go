package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/payloads"
)

type fakeCompleter struct {
	completed []uuid.UUID
	err       error
}

func (f *fakeCompleter) Complete(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.completed = append(f.completed, id)
	return &models.Booking{ID: id, Status: enums.BookingStatusCompleted}, nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func mustConsumer(t *testing.T, completer *fakeCompleter, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(completer, manager, logger.New(logger.Options{
		ServiceName: "bookings-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}

func passthroughIdempotency(deleted *bool) fakeIdempotency {
	return fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			if deleted != nil {
				*deleted = true
			}
			return nil
		},
	}
}

func TestBookingsConsumerCompletesFulfilledBooking(t *testing.T) {
	completer := &fakeCompleter{}
	consumer := mustConsumer(t, completer, passthroughIdempotency(nil))

	bookingID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.FulfillmentCompletedEvent{
		BookingID:        bookingID,
		BookingReference: "VG-7KQ2M9XF",
		UserID:           uuid.New(),
		FulfilledAt:      time.Now(),
	})

	if err := consumer.Process(context.Background(), enums.EventFulfillmentCompleted, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(completer.completed) != 1 || completer.completed[0] != bookingID {
		t.Fatalf("unexpected completions: %v", completer.completed)
	}
}

func TestBookingsConsumerIgnoresOtherEvents(t *testing.T) {
	completer := &fakeCompleter{}
	consumer := mustConsumer(t, completer, passthroughIdempotency(nil))

	envelope := buildEnvelope(t, uuid.New(), map[string]any{})
	if err := consumer.Process(context.Background(), enums.EventBookingCreated, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(completer.completed) != 0 {
		t.Fatal("unsupported event reached completer")
	}
}

func TestBookingsConsumerDoesNotSettleOnPaymentConfirmation(t *testing.T) {
	completer := &fakeCompleter{}
	consumer := mustConsumer(t, completer, passthroughIdempotency(nil))

	// A confirmed booking must stay cancellable until fulfillment reports
	// in; the payment-confirmation event alone must never complete it.
	envelope := buildEnvelope(t, uuid.New(), payloads.BookingConfirmedEvent{
		BookingID:       uuid.New(),
		PaymentIntentID: "pi_1",
		ConfirmedAt:     time.Now(),
	})
	if err := consumer.Process(context.Background(), enums.EventBookingConfirmed, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(completer.completed) != 0 {
		t.Fatal("booking_confirmed settled the booking")
	}
}

func TestBookingsConsumerIsIdempotent(t *testing.T) {
	completer := &fakeCompleter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, completer, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.FulfillmentCompletedEvent{BookingID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventFulfillmentCompleted, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(completer.completed) != 0 {
		t.Fatal("duplicate event reached completer")
	}
}

func TestBookingsConsumerDeletesMarkOnFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("db down")}
	deleted := false
	consumer := mustConsumer(t, completer, passthroughIdempotency(&deleted))

	envelope := buildEnvelope(t, uuid.New(), payloads.FulfillmentCompletedEvent{BookingID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventFulfillmentCompleted, envelope); err == nil {
		t.Fatal("expected error when completion fails")
	}
	if !deleted {
		t.Fatal("expected idempotency key deletion on failure")
	}
}

func TestBookingsConsumerDeletesMarkOnBadPayload(t *testing.T) {
	completer := &fakeCompleter{}
	deleted := false
	consumer := mustConsumer(t, completer, passthroughIdempotency(&deleted))

	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       []byte("{invalid json"),
	}
	if err := consumer.Process(context.Background(), enums.EventFulfillmentCompleted, envelope); err == nil {
		t.Fatal("expected error for bad payload")
	}
	if !deleted {
		t.Fatal("expected idempotency key deletion on payload error")
	}
}
