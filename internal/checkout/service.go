package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/internal/booking"
	"github.com/voyago-travel/voyago-backend/internal/cart"
	"github.com/voyago-travel/voyago-backend/internal/payments"
	"github.com/voyago-travel/voyago-backend/internal/pricing"
	dbpkg "github.com/voyago-travel/voyago-backend/pkg/db"
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/metrics"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/payloads"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type intentCreator interface {
	Create(ctx context.Context, input payments.CreateIntentInput) (*payments.Intent, error)
}

// Service turns an active cart into a booking awaiting payment.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID) (*types.PaymentHandoff, error)
}

type service struct {
	carts          cart.RecordRepository
	bookings       booking.Repository
	tx             txRunner
	intents        intentCreator
	outbox         outboxPublisher
	metrics        *metrics.CheckoutMetrics
	publishableKey string
	now            func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(
	carts cart.RecordRepository,
	bookings booking.Repository,
	tx txRunner,
	intents intentCreator,
	publisher outboxPublisher,
	checkoutMetrics *metrics.CheckoutMetrics,
	publishableKey string,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if intents == nil {
		return nil, fmt.Errorf("payment intent client required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		carts:          carts,
		bookings:       bookings,
		tx:             tx,
		intents:        intents,
		outbox:         publisher,
		metrics:        checkoutMetrics,
		publishableKey: publishableKey,
		now:            time.Now,
	}, nil
}

// Execute validates the active cart, then atomically creates the draft
// booking with its frozen item snapshot, opens the payment intent, and moves
// the booking to pending_payment. The cart is not touched; it is only
// consumed once payment succeeds. Validation failures happen before any call
// to the processor.
func (s *service) Execute(ctx context.Context, userID uuid.UUID) (*types.PaymentHandoff, error) {
	start := s.now()

	if userID == uuid.Nil {
		return nil, s.reject(start, "missing_user", pkgerrors.New(pkgerrors.CodeValidation, "user id is required"))
	}

	record, err := s.carts.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.reject(start, "empty_cart", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
		}
		return nil, s.fail(start, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}
	if rejectErr := s.validateCart(record); rejectErr != nil {
		return nil, rejectErr.toMetric(s, start)
	}

	var handoff *types.PaymentHandoff

	// Booking references are random; a unique violation on insert means we
	// collided and should retry with a fresh reference.
	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, execErr := s.executeTx(ctx, userID)
		if execErr != nil {
			if dbpkg.IsUniqueViolation(execErr, "reference") {
				return retry.RetryableError(execErr)
			}
			return execErr
		}
		handoff = result
		return nil
	})
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeValidation:
				return nil, s.reject(start, "empty_cart", typed)
			case pkgerrors.CodeExpiredCart:
				return nil, s.reject(start, "expired_cart", typed)
			}
		}
		return nil, s.fail(start, err)
	}

	s.metrics.IncSucceeded()
	s.metrics.ObserveDuration("succeeded", s.now().Sub(start))
	return handoff, nil
}

func (s *service) executeTx(ctx context.Context, userID uuid.UUID) (*types.PaymentHandoff, error) {
	reference, err := booking.NewReference()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reference")
	}

	var handoff *types.PaymentHandoff
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		record, err := carts.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if rejectErr := s.validateCart(record); rejectErr != nil {
			return rejectErr.err
		}

		total := pricing.Present(pricing.CartTotal(record.Items))
		draft := &models.Booking{
			Reference:   reference,
			UserID:      userID,
			CartID:      record.ID,
			Status:      enums.BookingStatusDraft,
			TotalAmount: total,
			Currency:    record.Currency,
			Items:       snapshotItems(record.Items),
		}

		bookings := s.bookings.WithTx(tx)
		created, err := bookings.Create(ctx, draft)
		if err != nil {
			return err
		}

		intent, err := s.intents.Create(ctx, payments.CreateIntentInput{
			Amount:           total,
			Currency:         record.Currency,
			BookingID:        created.ID,
			BookingReference: created.Reference,
			UserID:           userID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePayment, err, "create payment intent")
		}

		if err := booking.ValidateTransition(created.Status, enums.BookingStatusPendingPayment, booking.TriggerSystem); err != nil {
			return err
		}
		created.Status = enums.BookingStatusPendingPayment
		created.PaymentIntentID = intent.ID
		if _, err := bookings.Update(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
		}

		event := payloads.BookingCreatedEvent{
			BookingID:        created.ID,
			BookingReference: created.Reference,
			UserID:           userID,
			CartID:           record.ID,
			TotalAmount:      total,
			Currency:         record.Currency,
			PaymentIntentID:  intent.ID,
			ItemCount:        len(created.Items),
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Source: "api"},
			Data:          event,
			Version:       1,
			OccurredAt:    s.now(),
		}); err != nil {
			return err
		}

		handoff = &types.PaymentHandoff{
			BookingID:        created.ID,
			BookingReference: created.Reference,
			PaymentIntentID:  intent.ID,
			ClientSecret:     intent.ClientSecret,
			PublishableKey:   s.publishableKey,
			Amount:           total,
			Currency:         record.Currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handoff, nil
}

type cartRejection struct {
	reason string
	err    *pkgerrors.Error
}

func (r *cartRejection) toMetric(s *service, start time.Time) error {
	return s.reject(start, r.reason, r.err)
}

func (s *service) validateCart(record *models.CartRecord) *cartRejection {
	if len(record.Items) == 0 {
		return &cartRejection{
			reason: "empty_cart",
			err:    pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"),
		}
	}
	if record.Expired(s.now()) {
		return &cartRejection{
			reason: "expired_cart",
			err: pkgerrors.New(pkgerrors.CodeExpiredCart, "cart has expired").
				WithDetails(map[string]string{"expired_at": record.ExpiresAt.UTC().Format(time.RFC3339)}),
		}
	}
	return nil
}

func (s *service) reject(start time.Time, reason string, err *pkgerrors.Error) error {
	s.metrics.IncRejected(reason)
	s.metrics.ObserveDuration("rejected", s.now().Sub(start))
	return err
}

func (s *service) fail(start time.Time, err error) error {
	s.metrics.IncFailed()
	s.metrics.ObserveDuration("failed", s.now().Sub(start))
	return err
}

func snapshotItems(items []models.CartItem) []models.BookingItem {
	frozen := make([]models.BookingItem, 0, len(items))
	for _, item := range items {
		frozen = append(frozen, models.BookingItem{
			ItemType:  item.ItemType,
			ItemRef:   item.ItemRef,
			ItemData:  item.ItemData,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  item.Currency,
		})
	}
	return frozen
}
