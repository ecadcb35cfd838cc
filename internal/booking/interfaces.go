package booking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
)

// Repository exposes booking persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Booking, error)
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) (*models.Booking, error)
}
