package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// CartRecord is the authoritative server-side cart for a traveler. One active
// cart exists per user; converted and abandoned carts are retained for audit.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency    enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	ExpiresAt   time.Time        `gorm:"column:expires_at;not null"`
	Subtotal    decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	Total       decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Version     int              `gorm:"column:version;not null;default:0"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the cart's expiry has passed at the given instant.
func (c CartRecord) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
