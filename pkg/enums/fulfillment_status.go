package enums

import "fmt"

// FulfillmentStatus tracks the fulfillment axis of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusPlaced    FulfillmentStatus = "placed"
	FulfillmentStatusConfirmed FulfillmentStatus = "confirmed"
	FulfillmentStatusShipping  FulfillmentStatus = "shipping"
	FulfillmentStatusCompleted FulfillmentStatus = "completed"
	FulfillmentStatusCancelled FulfillmentStatus = "cancelled"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPlaced,
	FulfillmentStatusConfirmed,
	FulfillmentStatusShipping,
	FulfillmentStatusCompleted,
	FulfillmentStatusCancelled,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further fulfillment
// transitions. Soft delete is still allowed on terminal orders.
func (f FulfillmentStatus) IsTerminal() bool {
	return f == FulfillmentStatusCompleted || f == FulfillmentStatusCancelled
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
