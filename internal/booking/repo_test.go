package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	"github.com/voyago-travel/voyago-backend/pkg/pagination"
)

func setupBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  cart_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  total_amount NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_intent_id TEXT,
  failure_reason TEXT,
  cancel_reason TEXT,
  confirmed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	bookingItems := `
CREATE TABLE IF NOT EXISTS booking_items (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  item_type TEXT NOT NULL,
  item_ref TEXT NOT NULL,
  item_data TEXT,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(bookings).Error)
	require.NoError(t, db.Exec(bookingItems).Error)
	return db
}

func insertBooking(t *testing.T, db *gorm.DB, userID uuid.UUID, reference string, createdAt time.Time) models.Booking {
	t.Helper()

	booking := models.Booking{
		ID:          uuid.New(),
		Reference:   reference,
		UserID:      userID,
		CartID:      uuid.New(),
		Status:      enums.BookingStatusConfirmed,
		TotalAmount: decimal.RequireFromString("250.00"),
		Currency:    enums.CurrencyUSD,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Items: []models.BookingItem{
			{
				ID:        uuid.New(),
				ItemType:  enums.ItemTypeHotel,
				ItemRef:   "HTL-" + reference,
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("250.00"),
				Currency:  enums.CurrencyUSD,
			},
		},
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}

func TestRepositoryFindByReferencePreloadsItems(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := insertBooking(t, db, uuid.New(), "VG-AAAA1111", time.Now())

	found, err := repo.FindByReference(ctx, "VG-AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "HTL-VG-AAAA1111", found.Items[0].ItemRef)
}

func TestRepositoryFindByIDAndUserScopesToOwner(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	seeded := insertBooking(t, db, owner, "VG-BBBB2222", time.Now())

	found, err := repo.FindByIDAndUser(ctx, seeded.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByIDAndUser(ctx, seeded.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	oldest := insertBooking(t, db, userID, "VG-CCCC0001", base)
	middle := insertBooking(t, db, userID, "VG-CCCC0002", base.Add(time.Hour))
	newest := insertBooking(t, db, userID, "VG-CCCC0003", base.Add(2*time.Hour))
	insertBooking(t, db, uuid.New(), "VG-DDDD0001", base.Add(3*time.Hour))

	page, err := repo.ListByUser(ctx, userID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	cursor := &pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}
	rest, err := repo.ListByUser(ctx, userID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestRepositoryUpdatePersistsStatus(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := insertBooking(t, db, uuid.New(), "VG-EEEE4444", time.Now())
	seeded.Status = enums.BookingStatusCompleted

	_, err := repo.Update(ctx, &seeded)
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCompleted, reloaded.Status)
}
