package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// CartItem is one travel product line in a cart. ItemData carries the
// denormalized payload (route, dates, ancillaries) needed to reprice the line
// without refetching the vendor offer.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ItemType  enums.ItemType  `gorm:"column:item_type;type:item_type;not null"`
	ItemRef   string          `gorm:"column:item_ref;not null"`
	ItemData  types.ItemData  `gorm:"column:item_data;type:jsonb;serializer:json"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency  enums.Currency  `gorm:"column:currency;not null;default:'USD'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
