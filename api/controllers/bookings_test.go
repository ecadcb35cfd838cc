package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	bookingsvc "github.com/voyago-travel/voyago-backend/internal/booking"
	paymentsvc "github.com/voyago-travel/voyago-backend/internal/payments"
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
)

type stubBookingService struct {
	booking       *models.Booking
	list          *bookingsvc.ListResult
	err           error
	byReference   string
	cancelReason  *string
	lastListLimit int
}

func (s *stubBookingService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*bookingsvc.ListResult, error) {
	s.lastListLimit = params.Limit
	return s.list, s.err
}

func (s *stubBookingService) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookingService) GetByReference(ctx context.Context, userID uuid.UUID, reference string) (*models.Booking, error) {
	s.byReference = reference
	return s.booking, s.err
}

func (s *stubBookingService) Cancel(ctx context.Context, userID, id uuid.UUID, reason *string) (*models.Booking, error) {
	s.cancelReason = reason
	return s.booking, s.err
}

func (s *stubBookingService) Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookingService) ConfirmTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, paymentIntentID string) (bool, error) {
	return false, nil
}

func (s *stubBookingService) MarkPendingTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return nil
}

func (s *stubBookingService) RecordPaymentFailureTx(ctx context.Context, tx *gorm.DB, booking *models.Booking, reason string, terminal bool) error {
	return nil
}

type stubPaymentService struct {
	booking   *models.Booking
	err       error
	lastInput paymentsvc.ResolveInput
}

func (s *stubPaymentService) Resolve(ctx context.Context, input paymentsvc.ResolveInput) (*models.Booking, error) {
	s.lastInput = input
	return s.booking, s.err
}

func (s *stubPaymentService) ResolveByIntent(ctx context.Context, paymentIntentID string, status enums.PaymentStatus, reason string, terminal bool) error {
	return s.err
}

func sampleBooking() *models.Booking {
	confirmedAt := time.Now()
	return &models.Booking{
		ID:              uuid.New(),
		Reference:       "VG-7KQ2M9XF",
		UserID:          uuid.New(),
		CartID:          uuid.New(),
		Status:          enums.BookingStatusConfirmed,
		TotalAmount:     decimal.RequireFromString("500.00"),
		Currency:        enums.CurrencyEUR,
		PaymentIntentID: "pi_500",
		ConfirmedAt:     &confirmedAt,
		Items: []models.BookingItem{
			{
				ID:        uuid.New(),
				ItemType:  enums.ItemTypeHotel,
				ItemRef:   "HTL-1",
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("500.00"),
				Currency:  enums.CurrencyEUR,
			},
		},
	}
}

func TestBookingListReturnsPage(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{list: &bookingsvc.ListResult{
		Bookings:   []models.Booking{*sampleBooking()},
		NextCursor: "cursor123",
	}}
	handler := BookingList(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/bookings?limit=10", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastListLimit != 10 {
		t.Fatalf("limit not forwarded, got %d", svc.lastListLimit)
	}

	var body bookingListResponse
	decodeData(t, resp, &body)
	if len(body.Bookings) != 1 || body.NextCursor != "cursor123" {
		t.Fatalf("unexpected page: %+v", body)
	}
	if body.Bookings[0].Reference != "VG-7KQ2M9XF" {
		t.Fatalf("unexpected booking: %+v", body.Bookings[0])
	}
}

func TestBookingListRejectsBadLimit(t *testing.T) {
	t.Parallel()

	handler := BookingList(&stubBookingService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/bookings?limit=9999", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestBookingDetailByID(t *testing.T) {
	t.Parallel()

	booking := sampleBooking()
	svc := &stubBookingService{booking: booking}
	handler := BookingDetail(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/bookings/"+booking.ID.String(), "")
	req = withURLParam(req, "bookingId", booking.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body bookingResponse
	decodeData(t, resp, &body)
	if body.ID != booking.ID || body.Status != "confirmed" {
		t.Fatalf("unexpected booking payload: %+v", body)
	}
}

func TestBookingDetailByReference(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{booking: sampleBooking()}
	handler := BookingDetail(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/bookings/vg-7kq2m9xf", "")
	req = withURLParam(req, "bookingId", "vg-7kq2m9xf")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.byReference != "VG-7KQ2M9XF" {
		t.Fatalf("reference lookup not used: %q", svc.byReference)
	}
}

func TestBookingCancelForwardsReason(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{booking: sampleBooking()}
	handler := BookingCancel(svc, nil)

	bookingID := uuid.NewString()
	req := authedRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", `{"reason":"plans changed"}`)
	req = withURLParam(req, "bookingId", bookingID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.cancelReason == nil || *svc.cancelReason != "plans changed" {
		t.Fatalf("cancel reason not forwarded: %v", svc.cancelReason)
	}
}

func TestBookingCancelTerminalConflict(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "booking is in a terminal state")}
	handler := BookingCancel(svc, nil)

	bookingID := uuid.NewString()
	req := authedRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", "")
	req = withURLParam(req, "bookingId", bookingID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestBookingConfirmPaymentForwardsInput(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentService{booking: sampleBooking()}
	handler := BookingConfirmPayment(svc, nil)

	bookingID := uuid.New()
	payload := `{"payment_intent_id":"pi_500","status":"succeeded"}`
	req := authedRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payment", payload)
	req = withURLParam(req, "bookingId", bookingID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.PaymentIntentID != "pi_500" || svc.lastInput.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("unexpected resolve input: %+v", svc.lastInput)
	}
	if svc.lastInput.BookingID != bookingID {
		t.Fatal("booking id not forwarded")
	}
}

func TestBookingConfirmPaymentRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	handler := BookingConfirmPayment(&stubPaymentService{}, nil)

	bookingID := uuid.NewString()
	req := authedRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/payment", `{"payment_intent_id":"pi_1","status":"maybe"}`)
	req = withURLParam(req, "bookingId", bookingID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
