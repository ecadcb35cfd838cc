package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
)

type paymentResolver interface {
	ResolveByIntent(ctx context.Context, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	Resolver paymentResolver
	Guard    *IdempotencyGuard
	Logger   *logger.Logger
}

// Service routes verified Stripe events into payment resolution. Webhooks
// are the authoritative producer of payment state; the client confirmation
// endpoint is best-effort and this path converges with it.
type Service struct {
	resolver paymentResolver
	guard    *IdempotencyGuard
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment resolver required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	return &Service{
		resolver: params.Resolver,
		guard:    params.Guard,
		logg:     params.Logger,
	}, nil
}

// HandleEvent processes one verified event. Unknown event types are
// acknowledged and dropped. Handler errors release the idempotency mark so
// Stripe's redelivery gets another attempt.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:
	default:
		return nil
	}

	already, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check")
	}
	if already {
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("duplicate stripe event %s dropped", event.ID))
		}
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		if releaseErr := s.guard.Release(ctx, event.ID); releaseErr != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("release webhook mark %s: %v", event.ID, releaseErr))
		}
		return err
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing from event")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.resolver.ResolveByIntent(ctx, intent.ID, enums.PaymentStatusSucceeded, "", false)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.resolver.ResolveByIntent(ctx, intent.ID, enums.PaymentStatusFailed, failureReason(&intent), false)
	case stripe.EventTypePaymentIntentCanceled:
		return s.resolver.ResolveByIntent(ctx, intent.ID, enums.PaymentStatusFailed, cancelReason(&intent), true)
	default:
		return nil
	}
}

func failureReason(intent *stripe.PaymentIntent) string {
	if intent.LastPaymentError != nil {
		if intent.LastPaymentError.DeclineCode != "" {
			return string(intent.LastPaymentError.DeclineCode)
		}
		if intent.LastPaymentError.Msg != "" {
			return intent.LastPaymentError.Msg
		}
	}
	return "payment_failed"
}

func cancelReason(intent *stripe.PaymentIntent) string {
	if intent.CancellationReason != "" {
		return string(intent.CancellationReason)
	}
	return "intent_canceled"
}
