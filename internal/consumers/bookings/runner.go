package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
)

type eventProcessor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Runner drains the bookings subscription and feeds each delivery to the
// consumer. Malformed messages ack so they do not wedge the subscription;
// processing errors nack for redelivery.
type Runner struct {
	subscription *gcppubsub.Subscriber
	processor    eventProcessor
	logg         *logger.Logger
}

// NewRunner builds the subscription runner.
func NewRunner(subscription *gcppubsub.Subscriber, processor eventProcessor, logg *logger.Logger) (*Runner, error) {
	if subscription == nil {
		return nil, errors.New("bookings subscription is required")
	}
	if processor == nil {
		return nil, errors.New("event processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Runner{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes bookings messages until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return r.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if r.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (r *Runner) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := r.logg.WithFields(ctx, fields)

	eventType, envelope, err := r.decode(msg)
	if err != nil {
		fields["error"] = err.Error()
		r.logg.Warn(r.logg.WithFields(ctx, fields), "invalid bookings message")
		return processResult{}
	}

	if err := r.processor.Process(logCtx, eventType, *envelope); err != nil {
		r.logg.Error(logCtx, "bookings event processing failed", err)
		return processResult{nack: true}
	}
	return processResult{}
}

func (r *Runner) decode(msg *gcppubsub.Message) (enums.OutboxEventType, *outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return "", nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return "", nil, fmt.Errorf("event_type: %w", err)
	}

	if strings.TrimSpace(envelope.EventID) == "" {
		envelope.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if envelope.EventID == "" {
		return "", nil, errors.New("event_id missing")
	}
	return eventType, &envelope, nil
}
