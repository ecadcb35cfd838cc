package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voyago-travel/voyago-backend/internal/pricing"
	"github.com/voyago-travel/voyago-backend/pkg/config"
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart read and mutation operations.
type Service interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	ExtendExpiry(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	records RecordRepository
	items   ItemRepository
	tx      txRunner
	cfg     config.CartConfig
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(records RecordRepository, items ItemRepository, tx txRunner, cfg config.CartConfig) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("cart record repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.ExpiryWindow <= 0 {
		return nil, fmt.Errorf("cart expiry window must be positive")
	}
	return &service{
		records: records,
		items:   items,
		tx:      tx,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// AddItemInput captures the payload required to add one line to the cart.
type AddItemInput struct {
	ItemType  enums.ItemType
	ItemRef   string
	Quantity  int
	UnitPrice decimal.Decimal
	Currency  enums.Currency
	Data      types.ItemData
}

// GetActiveCart returns the user's active cart, creating one when none
// exists. A cart found past its expiry is retired and replaced with a fresh
// empty cart so the user always gets a usable one back.
func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var record *models.CartRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOrCreateActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		record = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AddItem appends a line to the active cart, or merges into an existing line
// with the same type and reference. Totals are recomputed inside the same
// transaction as the write.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateAddItem(input); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOrCreateActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(loaded.Items) > 0 && loaded.Currency != input.Currency {
			return pkgerrors.New(pkgerrors.CodeValidation, "item currency does not match cart currency").
				WithDetails(map[string]string{"cart_currency": loaded.Currency.String()})
		}

		itemRepo := s.items.WithTx(tx)
		line := findLine(loaded.Items, input.ItemType, input.ItemRef)
		if line != nil {
			mergeLine(line, input)
			if err := itemRepo.Update(ctx, line); err != nil {
				return err
			}
		} else {
			created := buildLine(loaded.ID, input)
			if err := itemRepo.Create(ctx, &created); err != nil {
				return err
			}
			loaded.Items = append(loaded.Items, created)
		}

		loaded.Currency = input.Currency
		return s.persistTotals(ctx, tx, loaded)
	})
	if err != nil {
		return nil, err
	}
	return s.GetActiveCart(ctx, userID)
}

// UpdateItemQuantity changes the quantity of one line. Quantities below one
// are rejected; removal must be requested explicitly.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1; remove the item instead")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.requireActive(ctx, tx, userID)
		if err != nil {
			return err
		}

		itemRepo := s.items.WithTx(tx)
		line, err := itemRepo.FindByIDAndCart(ctx, itemID, loaded.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		if pinnedToSingleQuantity(line.ItemType) && quantity != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "this item is priced from its details and stays at quantity 1").
				WithDetails(map[string]string{"item_type": line.ItemType.String()})
		}

		line.Quantity = quantity
		if err := itemRepo.Update(ctx, line); err != nil {
			return err
		}
		replaceLine(loaded, *line)
		return s.persistTotals(ctx, tx, loaded)
	})
	if err != nil {
		return nil, err
	}
	return s.GetActiveCart(ctx, userID)
}

// RemoveItem deletes one line. Removing the last line leaves a valid empty
// cart with a zero total.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.requireActive(ctx, tx, userID)
		if err != nil {
			return err
		}

		itemRepo := s.items.WithTx(tx)
		if _, err := itemRepo.FindByIDAndCart(ctx, itemID, loaded.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		if err := itemRepo.Delete(ctx, loaded.ID, itemID); err != nil {
			return err
		}
		dropLine(loaded, itemID)
		return s.persistTotals(ctx, tx, loaded)
	})
	if err != nil {
		return nil, err
	}
	return s.GetActiveCart(ctx, userID)
}

// Clear removes every line from the active cart. Clearing an already empty
// cart is a no-op success.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.requireActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.items.WithTx(tx).DeleteByCart(ctx, loaded.ID); err != nil {
			return err
		}
		loaded.Items = nil
		return s.persistTotals(ctx, tx, loaded)
	})
	if err != nil {
		return nil, err
	}
	return s.GetActiveCart(ctx, userID)
}

// ExtendExpiry resets the expiry window of a still-active cart. An already
// expired cart cannot be revived.
func (s *service) ExtendExpiry(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.requireActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		loaded.ExpiresAt = s.now().Add(s.cfg.ExpiryWindow)
		loaded.Version++
		_, err = s.records.WithTx(tx).Update(ctx, loaded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetActiveCart(ctx, userID)
}

// ExpiringSoon reports whether the cart is inside the warn window before its
// expiry.
func ExpiringSoon(record *models.CartRecord, threshold time.Duration, now time.Time) bool {
	if record == nil || record.Expired(now) {
		return false
	}
	return record.ExpiresAt.Sub(now) <= threshold
}

func (s *service) loadOrCreateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.CartRecord, error) {
	recordRepo := s.records.WithTx(tx)
	record, err := recordRepo.FindActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	if record != nil && record.Expired(now) {
		if err := recordRepo.UpdateStatus(ctx, record.ID, userID, enums.CartStatusAbandoned); err != nil {
			return nil, err
		}
		record = nil
	}

	if record == nil {
		fresh := &models.CartRecord{
			UserID:    userID,
			Status:    enums.CartStatusActive,
			Currency:  enums.CurrencyUSD,
			ExpiresAt: now.Add(s.cfg.ExpiryWindow),
			Subtotal:  decimal.Zero,
			Total:     decimal.Zero,
			Version:   1,
		}
		return recordRepo.Create(ctx, fresh)
	}
	return record, nil
}

func (s *service) requireActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.records.WithTx(tx).FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, err
	}
	if record.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeExpiredCart, "cart has expired").
			WithDetails(map[string]string{"expired_at": record.ExpiresAt.UTC().Format(time.RFC3339)})
	}
	return record, nil
}

func (s *service) persistTotals(ctx context.Context, tx *gorm.DB, record *models.CartRecord) error {
	total := pricing.Present(pricing.CartTotal(record.Items))
	record.Subtotal = total
	record.Total = total
	record.Version++
	_, err := s.records.WithTx(tx).Update(ctx, record)
	return err
}

func validateAddItem(input AddItemInput) error {
	if !input.ItemType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown item type")
	}
	if input.ItemRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item reference is required")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	if input.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	switch input.ItemType {
	case enums.ItemTypeFlight:
		if input.Data.Flight == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "flight details are required")
		}
		if input.Data.Flight.BasePrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "flight base price cannot be negative")
		}
	case enums.ItemTypeActivity:
		if input.Data.Activity == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "activity details are required")
		}
		if input.Data.Activity.Participants < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "activity requires at least one participant")
		}
	}
	return nil
}

func findLine(items []models.CartItem, itemType enums.ItemType, itemRef string) *models.CartItem {
	for i := range items {
		if items[i].ItemType == itemType && items[i].ItemRef == itemRef {
			return &items[i]
		}
	}
	return nil
}

// pinnedToSingleQuantity reports whether the item type is priced from its
// payload (per-passenger ancillaries, participant counts). Those lines stay
// at quantity 1 everywhere; a multiplied quantity would not feed the total.
func pinnedToSingleQuantity(itemType enums.ItemType) bool {
	return itemType == enums.ItemTypeFlight || itemType == enums.ItemTypeActivity
}

// mergeLine folds a duplicate add into the existing line. Payload-priced
// lines replace the selection; simple lines accumulate quantity.
func mergeLine(line *models.CartItem, input AddItemInput) {
	if pinnedToSingleQuantity(input.ItemType) {
		line.Quantity = 1
		line.ItemData = input.Data
		line.UnitPrice = input.UnitPrice
	} else {
		line.Quantity += input.Quantity
		line.UnitPrice = input.UnitPrice
		line.ItemData = input.Data
	}
	line.Currency = input.Currency
}

func buildLine(cartID uuid.UUID, input AddItemInput) models.CartItem {
	quantity := input.Quantity
	if pinnedToSingleQuantity(input.ItemType) {
		quantity = 1
	}
	return models.CartItem{
		CartID:    cartID,
		ItemType:  input.ItemType,
		ItemRef:   input.ItemRef,
		ItemData:  input.Data,
		Quantity:  quantity,
		UnitPrice: input.UnitPrice,
		Currency:  input.Currency,
	}
}

func replaceLine(record *models.CartRecord, line models.CartItem) {
	for i := range record.Items {
		if record.Items[i].ID == line.ID {
			record.Items[i] = line
			return
		}
	}
}

func dropLine(record *models.CartRecord, itemID uuid.UUID) {
	kept := record.Items[:0]
	for _, item := range record.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	record.Items = kept
}
