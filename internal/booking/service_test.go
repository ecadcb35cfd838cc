package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
)

type stubRepo struct {
	bookings map[uuid.UUID]*models.Booking
}

func newStubRepo() *stubRepo {
	return &stubRepo{bookings: map[uuid.UUID]*models.Booking{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return booking, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *stubRepo) FindByIDAndUser(_ context.Context, id, userID uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok || booking.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *stubRepo) FindByReference(_ context.Context, reference string) (*models.Booking, error) {
	for _, booking := range s.bookings {
		if booking.Reference == reference {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*models.Booking, error) {
	for _, booking := range s.bookings {
		if booking.PaymentIntentID == paymentIntentID {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByUser(_ context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID == userID {
			rows = append(rows, *booking)
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubRepo) Update(_ context.Context, booking *models.Booking) (*models.Booking, error) {
	copied := *booking
	s.bookings[booking.ID] = &copied
	return booking, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newBookingService(t *testing.T) (Service, *stubRepo, *stubOutbox) {
	t.Helper()
	repo := newStubRepo()
	ob := &stubOutbox{}
	svc, err := NewService(repo, passTx{}, ob)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, ob
}

func seedBooking(repo *stubRepo, status enums.BookingStatus, intentID string) *models.Booking {
	booking := &models.Booking{
		ID:              uuid.New(),
		Reference:       "VG-TEST1234",
		UserID:          uuid.New(),
		CartID:          uuid.New(),
		Status:          status,
		TotalAmount:     decimal.RequireFromString("500.00"),
		Currency:        enums.CurrencyEUR,
		PaymentIntentID: intentID,
		CreatedAt:       time.Now(),
	}
	repo.bookings[booking.ID] = booking
	return booking
}

func TestCancel_FromPendingPayment(t *testing.T) {
	svc, repo, ob := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")
	reason := "changed plans"

	cancelled, err := svc.Cancel(context.Background(), booking.UserID, booking.ID, &reason)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.BookingStatusCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil || cancelled.CancelReason == nil || *cancelled.CancelReason != reason {
		t.Fatalf("cancellation metadata missing: %+v", cancelled)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventBookingCancelled {
		t.Fatalf("expected booking_cancelled event, got %+v", ob.events)
	}
}

func TestCancel_TerminalBookingRejected(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusFailed, "pi_1")

	_, err := svc.Cancel(context.Background(), booking.UserID, booking.ID, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.bookings[booking.ID].Status != enums.BookingStatusFailed {
		t.Fatal("terminal booking was mutated")
	}
}

func TestCancel_WrongUser(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")

	_, err := svc.Cancel(context.Background(), uuid.New(), booking.ID, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmTx_FirstConfirmation(t *testing.T) {
	svc, repo, ob := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")
	loaded := *repo.bookings[booking.ID]

	changed, err := svc.ConfirmTx(context.Background(), &gorm.DB{}, &loaded, "pi_1")
	if err != nil {
		t.Fatalf("ConfirmTx: %v", err)
	}
	if !changed {
		t.Fatal("first confirmation should report a change")
	}
	if repo.bookings[booking.ID].Status != enums.BookingStatusConfirmed {
		t.Fatalf("status = %s", repo.bookings[booking.ID].Status)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventBookingConfirmed {
		t.Fatalf("expected booking_confirmed event, got %+v", ob.events)
	}
}

func TestConfirmTx_RepeatSameIntentIsNoOp(t *testing.T) {
	svc, repo, ob := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")

	first := *repo.bookings[booking.ID]
	if _, err := svc.ConfirmTx(context.Background(), &gorm.DB{}, &first, "pi_1"); err != nil {
		t.Fatalf("first ConfirmTx: %v", err)
	}

	second := *repo.bookings[booking.ID]
	changed, err := svc.ConfirmTx(context.Background(), &gorm.DB{}, &second, "pi_1")
	if err != nil {
		t.Fatalf("repeat ConfirmTx: %v", err)
	}
	if changed {
		t.Fatal("repeat confirmation must be a no-op")
	}
	if len(ob.events) != 1 {
		t.Fatalf("repeat confirmation emitted extra events: %d", len(ob.events))
	}
}

func TestConfirmTx_DifferentIntentConflicts(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusConfirmed, "pi_1")

	loaded := *repo.bookings[booking.ID]
	_, err := svc.ConfirmTx(context.Background(), &gorm.DB{}, &loaded, "pi_other")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirmTx_FromPendingProcessing(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPending, "pi_1")

	loaded := *repo.bookings[booking.ID]
	changed, err := svc.ConfirmTx(context.Background(), &gorm.DB{}, &loaded, "pi_1")
	if err != nil || !changed {
		t.Fatalf("ConfirmTx from pending: changed=%v err=%v", changed, err)
	}
}

func TestRecordPaymentFailureTx_NonTerminalStaysRetryable(t *testing.T) {
	svc, repo, ob := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")

	loaded := *repo.bookings[booking.ID]
	if err := svc.RecordPaymentFailureTx(context.Background(), &gorm.DB{}, &loaded, "card_declined", false); err != nil {
		t.Fatalf("RecordPaymentFailureTx: %v", err)
	}

	stored := repo.bookings[booking.ID]
	if stored.Status != enums.BookingStatusPendingPayment {
		t.Fatalf("non-terminal failure changed status to %s", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "card_declined" {
		t.Fatalf("failure reason not recorded: %+v", stored)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventPaymentFailed {
		t.Fatalf("expected payment_failed event, got %+v", ob.events)
	}
}

func TestRecordPaymentFailureTx_TerminalMovesToFailed(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusPendingPayment, "pi_1")

	loaded := *repo.bookings[booking.ID]
	if err := svc.RecordPaymentFailureTx(context.Background(), &gorm.DB{}, &loaded, "intent_canceled", true); err != nil {
		t.Fatalf("RecordPaymentFailureTx: %v", err)
	}
	if repo.bookings[booking.ID].Status != enums.BookingStatusFailed {
		t.Fatalf("status = %s", repo.bookings[booking.ID].Status)
	}
}

func TestComplete_IdempotentOnCompleted(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	booking := seedBooking(repo, enums.BookingStatusConfirmed, "pi_1")

	if _, err := svc.Complete(context.Background(), booking.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	completed, err := svc.Complete(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("repeat Complete: %v", err)
	}
	if completed.Status != enums.BookingStatusCompleted {
		t.Fatalf("status = %s", completed.Status)
	}
}

func TestList_PaginatesWithCursor(t *testing.T) {
	svc, repo, _ := newBookingService(t)
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		booking := seedBooking(repo, enums.BookingStatusConfirmed, "")
		booking.UserID = userID
	}

	result, err := svc.List(context.Background(), userID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Bookings) != 2 {
		t.Fatalf("page size = %d", len(result.Bookings))
	}
	if result.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
}

func TestList_RejectsBadCursor(t *testing.T) {
	svc, _, _ := newBookingService(t)
	_, err := svc.List(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
