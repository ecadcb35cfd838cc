package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/voyago-travel/voyago-backend/pkg/db/models"
	"github.com/voyago-travel/voyago-backend/pkg/types"
)

// ItemTotal computes the authoritative total for one cart line. Flight lines
// price as base fare plus every per-passenger ancillary selection; activity
// lines price per participant. All other item types price as unit price times
// quantity. Intermediate values are never rounded.
func ItemTotal(item models.CartItem) decimal.Decimal {
	if flight := item.ItemData.Flight; flight != nil {
		return FlightTotal(*flight)
	}
	if activity := item.ItemData.Activity; activity != nil {
		return ParticipantTotal(activity.BasePrice, activity.Participants)
	}
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// FlightTotal sums the base fare with all seat, meal, and baggage selections.
func FlightTotal(flight types.FlightItemData) decimal.Decimal {
	total := flight.BasePrice
	total = total.Add(ancillarySum(flight.Seats))
	total = total.Add(ancillarySum(flight.Meals))
	total = total.Add(ancillarySum(flight.Baggage))
	return total
}

// ParticipantTotal multiplies a base price by the participant count. Counts
// below one are treated as one; quantity validation happens at the boundary,
// this is the aggregation floor.
func ParticipantTotal(base decimal.Decimal, participants int) decimal.Decimal {
	if participants < 1 {
		participants = 1
	}
	return base.Mul(decimal.NewFromInt(int64(participants)))
}

// CartTotal sums all item totals. The result is independent of item order and
// zero for an empty cart.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ItemTotal(item))
	}
	return total
}

// Present rounds a computed amount to two decimal places for display and for
// handoff to the payment processor. Only the final presentation rounds.
func Present(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

func ancillarySum(selections []types.PassengerAncillary) decimal.Decimal {
	total := decimal.Zero
	for _, selection := range selections {
		total = total.Add(selection.Price)
	}
	return total
}
