package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/voyago-travel/voyago-backend/pkg/enums"
	pkgstripe "github.com/voyago-travel/voyago-backend/pkg/stripe"
)

// Intent is the processor-side payment intent in provider-neutral form.
type Intent struct {
	ID           string
	ClientSecret string
	Status       enums.PaymentStatus
}

// CreateIntentInput carries everything required to open an intent for a booking.
type CreateIntentInput struct {
	Amount           decimal.Decimal
	Currency         enums.Currency
	BookingID        uuid.UUID
	BookingReference string
	UserID           uuid.UUID
}

// IntentClient exposes the subset of processor operations the checkout and
// confirmation flows need.
type IntentClient interface {
	Create(ctx context.Context, input CreateIntentInput) (*Intent, error)
	Get(ctx context.Context, id string) (*Intent, error)
}

type stripeIntentClient struct{}

// NewStripeIntentClient wraps the initialized Stripe client so payment flows
// can be tested against the IntentClient interface.
func NewStripeIntentClient(api *pkgstripe.Client) IntentClient {
	if api == nil {
		return nil
	}
	return &stripeIntentClient{}
}

func (c *stripeIntentClient) Create(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInMinorUnits(input.Amount)),
		Currency: stripe.String(strings.ToLower(input.Currency.String())),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", input.BookingID.String())
	params.AddMetadata("booking_reference", input.BookingReference)
	params.AddMetadata("user_id", input.UserID.String())

	created, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(created), nil
}

func (c *stripeIntentClient) Get(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	found, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(found), nil
}

func fromStripeIntent(intent *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       MapIntentStatus(intent.Status),
	}
}

// MapIntentStatus folds Stripe's intent statuses into the internal set.
func MapIntentStatus(status stripe.PaymentIntentStatus) enums.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return enums.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return enums.PaymentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusRequiresAction
	}
}

func amountInMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
