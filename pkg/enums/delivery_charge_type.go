package enums

import "fmt"

// DeliveryChargeType describes how an agency bills home delivery.
type DeliveryChargeType string

const (
	DeliveryChargeTypeFixed DeliveryChargeType = "fixed"
	DeliveryChargeTypePerKm DeliveryChargeType = "per_km"
)

// String implements fmt.Stringer.
func (d DeliveryChargeType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryChargeType.
func (d DeliveryChargeType) IsValid() bool {
	return d == DeliveryChargeTypeFixed || d == DeliveryChargeTypePerKm
}

// ParseDeliveryChargeType converts raw input into a DeliveryChargeType.
func ParseDeliveryChargeType(value string) (DeliveryChargeType, error) {
	switch DeliveryChargeType(value) {
	case DeliveryChargeTypeFixed:
		return DeliveryChargeTypeFixed, nil
	case DeliveryChargeTypePerKm:
		return DeliveryChargeTypePerKm, nil
	}
	return "", fmt.Errorf("invalid delivery charge type %q", value)
}
