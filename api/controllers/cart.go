package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/api/middleware"
	"github.com/voyago-travel/voyago-backend/api/responses"
	"github.com/voyago-travel/voyago-backend/api/validators"
	cartsvc "github.com/voyago-travel/voyago-backend/internal/cart"
	"github.com/voyago-travel/voyago-backend/internal/pricing"
	"github.com/voyago-travel/voyago-backend/pkg/config"
	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// CartFetch returns the traveler's active cart, creating one when missing.
func CartFetch(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetActiveCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record, cfg))
	}
}

// CartAddItem appends or merges one line into the active cart.
func CartAddItem(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record, cfg))
	}
}

// CartUpdateItemQuantity changes the quantity on one cart line.
func CartUpdateItemQuantity(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidURLParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItemQuantity(r.Context(), userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record, cfg))
	}
}

// CartRemoveItem drops one line from the active cart.
func CartRemoveItem(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidURLParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record, cfg))
	}
}

// CartClear empties the active cart while keeping it usable.
func CartClear(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record, cfg))
	}
}

// CartExtend resets the cart expiry window.
func CartExtend(svc cartsvc.Service, cfg config.CartConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ExtendExpiry(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record, cfg))
	}
}

type addCartItemRequest struct {
	ItemType  string          `json:"item_type" validate:"required"`
	ItemRef   string          `json:"item_ref" validate:"required"`
	Quantity  int             `json:"quantity" validate:"omitempty,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency" validate:"required"`
	Data      types.ItemData  `json:"data"`
}

func (r addCartItemRequest) toInput() (cartsvc.AddItemInput, error) {
	itemType, err := enums.ParseItemType(r.ItemType)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type")
	}
	currency, err := enums.ParseCurrency(r.Currency)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}

	quantity := r.Quantity
	if quantity == 0 {
		quantity = 1
	}

	return cartsvc.AddItemInput{
		ItemType:  itemType,
		ItemRef:   r.ItemRef,
		Quantity:  quantity,
		UnitPrice: r.UnitPrice,
		Currency:  currency,
		Data:      r.Data,
	}, nil
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type cartResponse struct {
	ID           uuid.UUID          `json:"id"`
	Status       string             `json:"status"`
	Currency     string             `json:"currency"`
	ExpiresAt    time.Time          `json:"expires_at"`
	ExpiringSoon bool               `json:"expiring_soon"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Total        decimal.Decimal    `json:"total"`
	Version      int                `json:"version"`
	Items        []cartItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemType  string          `json:"item_type"`
	ItemRef   string          `json:"item_ref"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Currency  string          `json:"currency"`
	Data      types.ItemData  `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

func newCartResponse(record *models.CartRecord, cfg config.CartConfig) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartItemResponse{
			ID:        item.ID,
			ItemType:  string(item.ItemType),
			ItemRef:   item.ItemRef,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: pricing.Present(pricing.ItemTotal(item)),
			Currency:  string(item.Currency),
			Data:      item.ItemData,
			CreatedAt: item.CreatedAt,
		})
	}

	return cartResponse{
		ID:           record.ID,
		Status:       string(record.Status),
		Currency:     string(record.Currency),
		ExpiresAt:    record.ExpiresAt,
		ExpiringSoon: cartsvc.ExpiringSoon(record, cfg.ExpiringSoonThreshold, time.Now()),
		Subtotal:     record.Subtotal,
		Total:        record.Total,
		Version:      record.Version,
		Items:        items,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func uuidURLParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier required").WithDetails(map[string]string{"param": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]string{"param": name})
	}
	return id, nil
}
