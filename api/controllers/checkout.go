package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/api/responses"
	checkoutsvc "github.com/voyago-travel/voyago-backend/internal/checkout"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// Checkout submits the traveler's active cart and returns the payment handoff.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handoff, err := svc.Execute(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(handoff))
	}
}

type checkoutResponse struct {
	BookingID        string          `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	PaymentIntentID  string          `json:"payment_intent_id"`
	ClientSecret     string          `json:"client_secret"`
	PublishableKey   string          `json:"publishable_key"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}

func newCheckoutResponse(handoff *types.PaymentHandoff) checkoutResponse {
	if handoff == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		BookingID:        handoff.BookingID.String(),
		BookingReference: handoff.BookingReference,
		PaymentIntentID:  handoff.PaymentIntentID,
		ClientSecret:     handoff.ClientSecret,
		PublishableKey:   handoff.PublishableKey,
		Amount:           handoff.Amount,
		Currency:         string(handoff.Currency),
	}
}
