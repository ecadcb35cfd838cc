package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
)

// CartRecordRepository encapsulates cart record persistence.
type CartRecordRepository struct {
	db *gorm.DB
}

// NewCartRecordRepository binds the repository to the provided GORM handle.
func NewCartRecordRepository(db *gorm.DB) *CartRecordRepository {
	return &CartRecordRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *CartRecordRepository) WithTx(tx *gorm.DB) RecordRepository {
	if tx == nil {
		return r
	}
	return &CartRecordRepository{db: tx}
}

// FindActiveByUser returns the latest active cart for the user.
func (r *CartRecordRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDAndUser returns the cart record belonging to the user.
func (r *CartRecordRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts the provided cart record.
func (r *CartRecordRepository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the provided cart record.
func (r *CartRecordRepository) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateStatus updates the status for the specified cart.
func (r *CartRecordRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status).Error
}

// MarkConverted flips the cart to converted and stamps the conversion time.
func (r *CartRecordRepository) MarkConverted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", id, enums.CartStatusActive).
		Updates(map[string]interface{}{
			"status":       enums.CartStatusConverted,
			"converted_at": at,
		}).Error
}
