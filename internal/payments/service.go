package payments

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
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type bookingLifecycle interface {
	ConfirmTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, paymentIntentID string) (bool, error)
	MarkPendingTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	RecordPaymentFailureTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, reason string, terminal bool) error
}

// ResolveInput is a traveler-reported payment outcome for their booking.
type ResolveInput struct {
	UserID          uuid.UUID
	BookingID       uuid.UUID
	PaymentIntentID string
	Status          enums.PaymentStatus
	FailureReason   string
}

// Service applies processor-reported payment outcomes to bookings. Both the
// client confirmation endpoint and the webhook handler funnel through it, so
// duplicate reports from the two producers converge on the same state.
type Service interface {
	Resolve(ctx context.Context, input ResolveInput) (*models.Booking, error)
	ResolveByIntent(ctx context.Context, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error
}

type service struct {
	bookings  booking.Repository
	carts     cart.RecordRepository
	cartItems cart.ItemRepository
	lifecycle bookingLifecycle
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the payment resolution service.
func NewService(
	bookings booking.Repository,
	carts cart.RecordRepository,
	cartItems cart.ItemRepository,
	lifecycle bookingLifecycle,
	tx txRunner,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if bookings == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart record repository required")
	}
	if cartItems == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("booking lifecycle required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		bookings:  bookings,
		carts:     carts,
		cartItems: cartItems,
		lifecycle: lifecycle,
		tx:        tx,
		outbox:    publisher,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Resolve applies a traveler-reported outcome. A success confirms the booking
// and consumes the cart; processing parks the booking; a failure records the
// reason and leaves the booking retryable with the cart intact.
func (s *service) Resolve(ctx context.Context, input ResolveInput) (*models.Booking, error) {
	if input.UserID == uuid.Nil || input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and booking id are required")
	}
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	loaded, err := s.bookings.FindByIDAndUser(ctx, input.BookingID, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if loaded.PaymentIntentID != "" && loaded.PaymentIntentID != input.PaymentIntentID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent does not match booking")
	}

	if err := s.apply(ctx, loaded.ID, input.PaymentIntentID, input.Status, input.FailureReason, false); err != nil {
		return nil, err
	}
	return s.bookings.FindByIDAndUser(ctx, input.BookingID, input.UserID)
}

// ResolveByIntent applies a processor-reported outcome keyed by intent id.
// Used by the webhook handler, where the terminal flag distinguishes a
// cancelled intent from a retryable decline.
func (s *service) ResolveByIntent(ctx context.Context, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	loaded, err := s.bookings.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Intents can reference bookings from other environments; skip.
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("no booking for payment intent %s", paymentIntentID))
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return s.apply(ctx, loaded.ID, paymentIntentID, status, reason, terminal)
}

func (s *service) apply(ctx context.Context, bookingID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error {
	// Transient storage errors retry; domain rejections do not.
	backoff := retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.applyOnce(ctx, bookingID, paymentIntentID, status, reason, terminal)
		if err == nil {
			return nil
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeDependency {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (s *service) applyOnce(ctx context.Context, bookingID uuid.UUID, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.bookings.WithTx(tx).FindByID(ctx, bookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}

		switch status {
		case enums.PaymentStatusSucceeded:
			changed, err := s.lifecycle.ConfirmTx(ctx, tx, loaded, paymentIntentID)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentSucceeded,
				AggregateType: enums.AggregateBooking,
				AggregateID:   loaded.ID,
				Data: payloads.PaymentSucceededEvent{
					BookingID:        loaded.ID,
					BookingReference: loaded.Reference,
					UserID:           loaded.UserID,
					PaymentIntentID:  paymentIntentID,
					Amount:           loaded.TotalAmount,
					Currency:         loaded.Currency,
				},
				Version:    1,
				OccurredAt: s.now(),
			}); err != nil {
				return err
			}
			return s.consumeCartTx(ctx, tx, loaded)

		case enums.PaymentStatusProcessing:
			return s.lifecycle.MarkPendingTx(ctx, tx, loaded)

		case enums.PaymentStatusRequiresAction:
			// The traveler still has to act; nothing to record yet.
			return nil

		default:
			return s.lifecycle.RecordPaymentFailureTx(ctx, tx, loaded, reason, terminal)
		}
	})
}

// consumeCartTx empties and converts the cart tied to the booking. A cart
// that is already gone or no longer active means a duplicate success report
// and is fine.
func (s *service) consumeCartTx(ctx context.Context, tx *gorm.DB, loaded *models.Booking) error {
	record, err := s.carts.WithTx(tx).FindByIDAndUser(ctx, loaded.CartID, loaded.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record.Status != enums.CartStatusActive {
		return nil
	}

	if err := s.cartItems.WithTx(tx).DeleteByCart(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	now := s.now()
	if err := s.carts.WithTx(tx).MarkConverted(ctx, record.ID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartConverted,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Data: payloads.CartConvertedEvent{
			CartID:      record.ID,
			UserID:      loaded.UserID,
			BookingID:   loaded.ID,
			ConvertedAt: now,
		},
		Version:    1,
		OccurredAt: now,
	})
}
