package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/api/responses"
	"github.com/voyago-travel/voyago-backend/api/validators"
	bookingsvc "github.com/voyago-travel/voyago-backend/internal/booking"
	paymentsvc "github.com/voyago-travel/voyago-backend/internal/payments"
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// BookingList returns the traveler's bookings, newest first.
func BookingList(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookings := make([]bookingResponse, 0, len(result.Bookings))
		for i := range result.Bookings {
			bookings = append(bookings, newBookingResponse(&result.Bookings[i]))
		}

		responses.WriteSuccess(w, bookingListResponse{
			Bookings:   bookings,
			NextCursor: result.NextCursor,
		})
	}
}

// BookingDetail returns one booking by id or by booking reference.
func BookingDetail(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identifier, err := bookingIdentifier(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var booking *models.Booking
		if identifier.reference != "" {
			booking, err = svc.GetByReference(r.Context(), userID, identifier.reference)
		} else {
			booking, err = svc.GetByID(r.Context(), userID, identifier.id)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// BookingCancel cancels a booking on the traveler's request.
func BookingCancel(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuidURLParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelBookingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		booking, err := svc.Cancel(r.Context(), userID, bookingID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// BookingConfirmPayment applies a client-reported payment outcome. The
// webhook path stays authoritative; this endpoint lets the client settle the
// booking without waiting for Stripe's delivery.
func BookingConfirmPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuidURLParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePaymentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		booking, err := svc.Resolve(r.Context(), paymentsvc.ResolveInput{
			UserID:          userID,
			BookingID:       bookingID,
			PaymentIntentID: payload.PaymentIntentID,
			Status:          status,
			FailureReason:   payload.FailureReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

type cancelBookingRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	Status          string `json:"status" validate:"required"`
	FailureReason   string `json:"failure_reason,omitempty" validate:"omitempty,max=500"`
}

type bookingListResponse struct {
	Bookings   []bookingResponse `json:"bookings"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type bookingResponse struct {
	ID              uuid.UUID             `json:"id"`
	Reference       string                `json:"reference"`
	CartID          uuid.UUID             `json:"cart_id"`
	Status          string                `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Currency        string                `json:"currency"`
	PaymentIntentID string                `json:"payment_intent_id,omitempty"`
	FailureReason   *string               `json:"failure_reason,omitempty"`
	CancelReason    *string               `json:"cancel_reason,omitempty"`
	ConfirmedAt     *time.Time            `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	Items           []bookingItemResponse `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type bookingItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemType  string          `json:"item_type"`
	ItemRef   string          `json:"item_ref"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
	Data      types.ItemData  `json:"data"`
}

func newBookingResponse(booking *models.Booking) bookingResponse {
	if booking == nil {
		return bookingResponse{}
	}

	items := make([]bookingItemResponse, 0, len(booking.Items))
	for _, item := range booking.Items {
		items = append(items, bookingItemResponse{
			ID:        item.ID,
			ItemType:  string(item.ItemType),
			ItemRef:   item.ItemRef,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  string(item.Currency),
			Data:      item.ItemData,
		})
	}

	return bookingResponse{
		ID:              booking.ID,
		Reference:       booking.Reference,
		CartID:          booking.CartID,
		Status:          string(booking.Status),
		TotalAmount:     booking.TotalAmount,
		Currency:        string(booking.Currency),
		PaymentIntentID: booking.PaymentIntentID,
		FailureReason:   booking.FailureReason,
		CancelReason:    booking.CancelReason,
		ConfirmedAt:     booking.ConfirmedAt,
		CancelledAt:     booking.CancelledAt,
		Items:           items,
		CreatedAt:       booking.CreatedAt,
		UpdatedAt:       booking.UpdatedAt,
	}
}

type bookingLookup struct {
	id        uuid.UUID
	reference string
}

// bookingIdentifier accepts either a uuid or a "VG-" booking reference in the
// same path segment.
func bookingIdentifier(r *http.Request) (bookingLookup, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "bookingId"))
	if raw == "" {
		return bookingLookup{}, pkgerrors.New(pkgerrors.CodeValidation, "identifier required")
	}
	if strings.HasPrefix(strings.ToUpper(raw), "VG-") {
		return bookingLookup{reference: strings.ToUpper(raw)}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return bookingLookup{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking identifier")
	}
	return bookingLookup{id: id}, nil
}
