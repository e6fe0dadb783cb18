package enums

import "fmt"

// ShippingStatus tracks dealer fulfillment progress independently of OrderStatus.
type ShippingStatus string

const (
	ShippingStatusPending    ShippingStatus = "pending"
	ShippingStatusProcessing ShippingStatus = "processing"
	ShippingStatusShipped    ShippingStatus = "shipped"
	ShippingStatusDelivered  ShippingStatus = "delivered"
)

// ordered by progression; Rank relies on this.
var validShippingStatuses = []ShippingStatus{
	ShippingStatusPending,
	ShippingStatusProcessing,
	ShippingStatusShipped,
	ShippingStatusDelivered,
}

// String implements fmt.Stringer.
func (s ShippingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingStatus.
func (s ShippingStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank is the position of the status in the fulfillment track, or -1.
func (s ShippingStatus) Rank() int {
	for i, candidate := range validShippingStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseShippingStatus converts raw input into a ShippingStatus.
func ParseShippingStatus(value string) (ShippingStatus, error) {
	for _, candidate := range validShippingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping status %q", value)
}
