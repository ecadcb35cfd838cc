package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// RecordRepository exposes persistence operations for cart records.
type RecordRepository interface {
	WithTx(tx *gorm.DB) RecordRepository
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.CartRecord, error)
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, status enums.CartStatus) error
	MarkConverted(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ItemRepository exposes persistence operations for cart lines.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	FindByIDAndCart(ctx context.Context, id, cartID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, cartID, id uuid.UUID) error
	DeleteByCart(ctx context.Context, cartID uuid.UUID) error
}
