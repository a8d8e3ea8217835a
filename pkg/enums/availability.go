package enums

import "fmt"

// Availability is the derived stock state of a product.
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityLowStock   Availability = "low_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

var validAvailabilities = []Availability{
	AvailabilityInStock,
	AvailabilityLowStock,
	AvailabilityOutOfStock,
}

// String implements fmt.Stringer.
func (a Availability) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Availability.
func (a Availability) IsValid() bool {
	for _, candidate := range validAvailabilities {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAvailability converts raw input into an Availability.
func ParseAvailability(value string) (Availability, error) {
	for _, candidate := range validAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability %q", value)
}

// DeriveAvailability computes the availability state from the quantity on hand
// and the reorder threshold. It is the single source of truth for the derived
// field; every write path that mutates quantity must apply it.
func DeriveAvailability(quantityOnHand, reorderThreshold int) Availability {
	switch {
	case quantityOnHand <= 0:
		return AvailabilityOutOfStock
	case quantityOnHand <= reorderThreshold:
		return AvailabilityLowStock
	default:
		return AvailabilityInStock
	}
}
