package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// PaymentHandoff is the ephemeral credential set returned at checkout time.
// It is consumed exactly once by the payment confirmation flow and never
// persisted beyond the checkout response.
type PaymentHandoff struct {
	BookingID        uuid.UUID       `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	PaymentIntentID  string          `json:"payment_intent_id"`
	ClientSecret     string          `json:"client_secret"`
	PublishableKey   string          `json:"publishable_key"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         enums.Currency  `json:"currency"`
}
