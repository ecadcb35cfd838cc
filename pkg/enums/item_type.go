package enums

import "fmt"

// ItemType identifies the kind of bookable product a cart line refers to.
type ItemType string

const (
	ItemTypeFlight   ItemType = "flight"
	ItemTypeHotel    ItemType = "hotel"
	ItemTypeActivity ItemType = "activity"
	ItemTypeTransfer ItemType = "transfer"
	ItemTypePackage  ItemType = "package"
)

var validItemTypes = []ItemType{
	ItemTypeFlight,
	ItemTypeHotel,
	ItemTypeActivity,
	ItemTypeTransfer,
	ItemTypePackage,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
