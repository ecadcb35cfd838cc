package types

import (
	"github.com/shopspring/decimal"
)

// PassengerAncillary is one priced extra (seat, meal, bag) selected for a
// single passenger. Ancillaries are keyed by passenger id so individual
// selections can be added or removed before the item is committed.
type PassengerAncillary struct {
	PassengerID string          `json:"passenger_id"`
	Code        string          `json:"code,omitempty"`
	Label       string          `json:"label,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// FlightItemData is the denormalized payload carried by a flight cart line.
// The embedded pricing fields are authoritative for aggregation: the item
// total is base + seats + meals + baggage, never unit price times quantity.
type FlightItemData struct {
	OfferID        string               `json:"offer_id"`
	Origin         string               `json:"origin"`
	Destination    string               `json:"destination"`
	DepartureDate  string               `json:"departure_date"`
	ReturnDate     string               `json:"return_date,omitempty"`
	CabinClass     string               `json:"cabin_class,omitempty"`
	PassengerCount int                  `json:"passenger_count"`
	BasePrice      decimal.Decimal      `json:"base_price"`
	Seats          []PassengerAncillary `json:"seats,omitempty"`
	Meals          []PassengerAncillary `json:"meals,omitempty"`
	Baggage        []PassengerAncillary `json:"baggage,omitempty"`
}

// ActivityItemData prices per participant: base price times participant count.
type ActivityItemData struct {
	ActivityID   string          `json:"activity_id"`
	Name         string          `json:"name"`
	Date         string          `json:"date"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Participants int             `json:"participants"`
}

// StayItemData describes a hotel room line.
type StayItemData struct {
	HotelID     string          `json:"hotel_id"`
	HotelName   string          `json:"hotel_name"`
	RoomType    string          `json:"room_type"`
	CheckIn     string          `json:"check_in"`
	CheckOut    string          `json:"check_out"`
	Nights      int             `json:"nights"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
}

// TransferItemData describes a ground transfer line.
type TransferItemData struct {
	TransferID   string `json:"transfer_id"`
	Pickup       string `json:"pickup"`
	Dropoff      string `json:"dropoff"`
	PickupTime   string `json:"pickup_time"`
	VehicleClass string `json:"vehicle_class,omitempty"`
}

// ItemData is the type-tagged payload stored on a cart line. Exactly one
// branch is expected to be set, matching the line's item type; the payload
// carries enough denormalized detail to render and reprice without a fetch.
type ItemData struct {
	Flight   *FlightItemData   `json:"flight,omitempty"`
	Activity *ActivityItemData `json:"activity,omitempty"`
	Stay     *StayItemData     `json:"stay,omitempty"`
	Transfer *TransferItemData `json:"transfer,omitempty"`
}
