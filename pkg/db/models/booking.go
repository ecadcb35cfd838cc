package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// Booking is the purchase record created at checkout. Bookings are never
// deleted; terminal states freeze the row. Reference is the human-shareable
// identifier surfaced to travelers and vendors.
type Booking struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference       string              `gorm:"column:reference;not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	CartID          uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	Status          enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'draft'"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency        enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	PaymentIntentID string              `gorm:"column:payment_intent_id;index"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	CancelReason    *string             `gorm:"column:cancel_reason"`
	ConfirmedAt     *time.Time          `gorm:"column:confirmed_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	Items           []BookingItem       `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
