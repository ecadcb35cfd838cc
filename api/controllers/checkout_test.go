package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgerrors "github.com/voyago-travel/voyago-backend/pkg/errors"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

type stubCheckoutService struct {
	handoff *types.PaymentHandoff
	err     error
}

func (s stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID) (*types.PaymentHandoff, error) {
	return s.handoff, s.err
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	handoff := &types.PaymentHandoff{
		BookingID:        uuid.New(),
		BookingReference: "VG-7KQ2M9XF",
		PaymentIntentID:  "pi_123",
		ClientSecret:     "pi_123_secret_456",
		PublishableKey:   "pk_test_123",
		Amount:           decimal.RequireFromString("500.00"),
		Currency:         enums.CurrencyUSD,
	}
	handler := Checkout(stubCheckoutService{handoff: handoff}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", ""))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var body checkoutResponse
	decodeData(t, resp, &body)
	if body.BookingReference != "VG-7KQ2M9XF" || body.ClientSecret != "pi_123_secret_456" {
		t.Fatalf("unexpected handoff payload: %+v", body)
	}
	if !body.Amount.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("unexpected amount %s", body.Amount)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	t.Parallel()

	svc := stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	handler := Checkout(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutExpiredCartConflict(t *testing.T) {
	t.Parallel()

	svc := stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeExpiredCart, "cart has expired")}
	handler := Checkout(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", ""))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCheckoutRequiresAuth(t *testing.T) {
	t.Parallel()

	handler := Checkout(stubCheckoutService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
