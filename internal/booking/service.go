package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/payloads"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ListResult carries one page of bookings plus the cursor for the next page.
type ListResult struct {
	Bookings   []models.Booking
	NextCursor string
}

// Service exposes booking reads and the user-facing lifecycle operations.
// Payment-driven transitions live on the Tx methods so payment flows can
// compose them with cart writes in a single transaction.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error)
	GetByReference(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error)
	Cancel(ctx context.Context, userID, id uuid.UUID, reason *string) (*models.Booking, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	ConfirmTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, paymentIntentID string) (bool, error)
	MarkPendingTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	RecordPaymentFailureTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, reason string, terminal bool) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a booking service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		now:    time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	result := &ListResult{Bookings: rows}
	if len(rows) > limit {
		result.Bookings = rows[:limit]
		last := result.Bookings[len(result.Bookings)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and booking id are required")
	}
	booking, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func (s *service) GetByReference(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	if userID == uuid.Nil || reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and reference are required")
	}
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return booking, nil
}

// Cancel moves a cancellable booking to cancelled and emits the cancellation
// event. Terminal bookings are rejected.
func (s *service) Cancel(ctx context.Context, userID, id uuid.UUID, reason *string) (*models.Booking, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and booking id are required")
	}

	var cancelled *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}

		if err := ValidateTransition(booking.Status, enums.BookingStatusCancelled, TriggerUser); err != nil {
			return err
		}

		now := s.now()
		booking.Status = enums.BookingStatusCancelled
		booking.CancelReason = reason
		booking.CancelledAt = &now
		if _, err := repo.Update(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
		}

		event := payloads.BookingCancelledEvent{
			BookingID:        booking.ID,
			BookingReference: booking.Reference,
			UserID:           booking.UserID,
			CancelledAt:      now,
		}
		if reason != nil {
			event.Reason = *reason
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCancelled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Source: "api"},
			Data:          event,
			Version:       1,
			OccurredAt:    now,
		}); err != nil {
			return err
		}

		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Complete settles a confirmed booking after fulfillment finishes. Calling it
// on an already completed booking is a no-op success so replayed fulfillment
// events converge.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}

	var completed *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}

		if booking.Status == enums.BookingStatusCompleted {
			completed = booking
			return nil
		}
		if err := ValidateTransition(booking.Status, enums.BookingStatusCompleted, TriggerSystem); err != nil {
			return err
		}

		booking.Status = enums.BookingStatusCompleted
		if _, err := repo.Update(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
		}
		completed = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// ConfirmTx idempotently confirms a booking inside the caller's transaction.
// A repeat confirmation with the same payment intent returns (false, nil); a
// different intent on an already confirmed booking is a conflict. The first
// successful confirmation emits booking_confirmed.
func (s *service) ConfirmTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, paymentIntentID string) (bool, error) {
	if booking == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "booking is required")
	}
	if paymentIntentID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	switch booking.Status {
	case enums.BookingStatusConfirmed, enums.BookingStatusCompleted:
		if booking.PaymentIntentID != paymentIntentID {
			return false, pkgerrors.New(pkgerrors.CodeConflict, "booking confirmed with a different payment intent")
		}
		return false, nil
	}

	if booking.PaymentIntentID != "" && booking.PaymentIntentID != paymentIntentID {
		return false, pkgerrors.New(pkgerrors.CodeConflict, "payment intent does not match booking")
	}
	if err := ValidateTransition(booking.Status, enums.BookingStatusConfirmed, TriggerSystem); err != nil {
		return false, err
	}

	now := s.now()
	booking.Status = enums.BookingStatusConfirmed
	booking.ConfirmedAt = &now
	booking.FailureReason = nil
	if _, err := s.repo.WithTx(tx).Update(ctx, booking); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
	}

	event := payloads.BookingConfirmedEvent{
		BookingID:        booking.ID,
		BookingReference: booking.Reference,
		UserID:           booking.UserID,
		PaymentIntentID:  paymentIntentID,
		ConfirmedAt:      now,
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBookingConfirmed,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Data:          event,
		Version:       1,
		OccurredAt:    now,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// MarkPendingTx parks the booking while the processor is still working.
func (s *service) MarkPendingTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking is required")
	}
	if booking.Status == enums.BookingStatusPending {
		return nil
	}
	if err := ValidateTransition(booking.Status, enums.BookingStatusPending, TriggerSystem); err != nil {
		return err
	}
	booking.Status = enums.BookingStatusPending
	if _, err := s.repo.WithTx(tx).Update(ctx, booking); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
	}
	return nil
}

// RecordPaymentFailureTx records a failed confirmation attempt. Non-terminal
// failures keep the booking retryable in pending_payment; terminal failures
// move it to failed. Both emit payment_failed.
func (s *service) RecordPaymentFailureTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, reason string, terminal bool) error {
	if booking == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking is required")
	}
	if booking.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is in a terminal state").
			WithDetails(map[string]string{"current_status": booking.Status.String()})
	}

	if reason == "" {
		reason = "payment failed"
	}
	booking.FailureReason = &reason
	if terminal {
		if err := ValidateTransition(booking.Status, enums.BookingStatusFailed, TriggerSystem); err != nil {
			return err
		}
		booking.Status = enums.BookingStatusFailed
	}
	if _, err := s.repo.WithTx(tx).Update(ctx, booking); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save booking")
	}

	event := payloads.PaymentFailedEvent{
		BookingID:        booking.ID,
		BookingReference: booking.Reference,
		UserID:           booking.UserID,
		PaymentIntentID:  booking.PaymentIntentID,
		Reason:           reason,
		Terminal:         terminal,
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentFailed,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Data:          event,
		Version:       1,
		OccurredAt:    s.now(),
	})
}
