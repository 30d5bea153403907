package enums

import "fmt"

// DiscountType describes how a coupon reduces the subtotal.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixed
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	switch DiscountType(value) {
	case DiscountTypePercentage:
		return DiscountTypePercentage, nil
	case DiscountTypeFixed:
		return DiscountTypeFixed, nil
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
