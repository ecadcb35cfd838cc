package bookings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/payloads"
)

const bookingsConsumerName = "bookings-worker"

type bookingCompleter interface {
	Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer settles confirmed bookings. Completion waits for the
// fulfillment_completed event that vendor integrations write once every line
// of the booking is delivered; payment confirmation alone never completes a
// booking, so the traveler keeps their cancellation window. Redis idempotency
// keeps redeliveries from reprocessing.
type Consumer struct {
	completer   bookingCompleter
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds the bookings consumer.
func NewConsumer(completer bookingCompleter, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if completer == nil {
		return nil, fmt.Errorf("booking completer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		completer: completer,
		manager:   manager,
		logg:      logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventFulfillmentCompleted: {},
		},
	}, nil
}

// Process applies one delivered event. Unsupported event types ack without
// side effects so the subscription can carry the whole bookings stream.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by bookings consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, bookingsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var payload payloads.FulfillmentCompletedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode fulfillment_completed payload", err)
		_ = c.manager.Delete(ctx, bookingsConsumerName, eventID)
		return err
	}
	if payload.BookingID == uuid.Nil {
		err := fmt.Errorf("booking id missing from payload")
		_ = c.manager.Delete(ctx, bookingsConsumerName, eventID)
		return err
	}

	if _, err := c.completer.Complete(ctx, payload.BookingID); err != nil {
		c.logg.Error(logCtx, "failed to complete booking", err)
		_ = c.manager.Delete(ctx, bookingsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "booking settled")
	return nil
}
