package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// BookingCreatedEvent signals a checkout produced a new booking awaiting payment.
type BookingCreatedEvent struct {
	BookingID        uuid.UUID       `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	UserID           uuid.UUID       `json:"user_id"`
	CartID           uuid.UUID       `json:"cart_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         enums.Currency  `json:"currency"`
	PaymentIntentID  string          `json:"payment_intent_id"`
	ItemCount        int             `json:"item_count"`
}

// BookingConfirmedEvent is emitted once a booking reaches CONFIRMED.
type BookingConfirmedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           uuid.UUID `json:"user_id"`
	PaymentIntentID  string    `json:"payment_intent_id"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

// BookingCancelledEvent is emitted when a traveler cancels a booking.
type BookingCancelledEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           uuid.UUID `json:"user_id"`
	CancelledAt      time.Time `json:"cancelled_at"`
	Reason           string    `json:"reason,omitempty"`
}

// PaymentSucceededEvent records a processor-confirmed payment for a booking.
type PaymentSucceededEvent struct {
	BookingID        uuid.UUID       `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	UserID           uuid.UUID       `json:"user_id"`
	PaymentIntentID  string          `json:"payment_intent_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         enums.Currency  `json:"currency"`
}

// PaymentFailedEvent records a processor-reported payment failure.
type PaymentFailedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           uuid.UUID `json:"user_id"`
	PaymentIntentID  string    `json:"payment_intent_id"`
	Reason           string    `json:"reason,omitempty"`
	Terminal         bool      `json:"terminal"`
}

// FulfillmentCompletedEvent signals that every vendor on a confirmed booking
// has delivered. Vendor integrations write it to the outbox; the bookings
// worker settles the booking to COMPLETED when it arrives.
type FulfillmentCompletedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           uuid.UUID `json:"user_id"`
	FulfilledAt      time.Time `json:"fulfilled_at"`
}

// CartConvertedEvent is emitted when a cart is consumed by a successful payment.
type CartConvertedEvent struct {
	CartID      uuid.UUID `json:"cart_id"`
	UserID      uuid.UUID `json:"user_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	ConvertedAt time.Time `json:"converted_at"`
}
