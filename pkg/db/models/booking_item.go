package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// BookingItem is a frozen snapshot of a cart line taken at checkout. Later
// cart mutations never touch these rows.
type BookingItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;index"`
	ItemType  enums.ItemType  `gorm:"column:item_type;type:item_type;not null"`
	ItemRef   string          `gorm:"column:item_ref;not null"`
	ItemData  types.ItemData  `gorm:"column:item_data;type:jsonb;serializer:json"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency  enums.Currency  `gorm:"column:currency;not null;default:'USD'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
