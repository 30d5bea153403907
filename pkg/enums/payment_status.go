package enums

import "fmt"

// PaymentStatus tracks whether payment has been collected for an order.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	return p == PaymentStatusUnpaid || p == PaymentStatusPaid
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	switch PaymentStatus(value) {
	case PaymentStatusUnpaid:
		return PaymentStatusUnpaid, nil
	case PaymentStatusPaid:
		return PaymentStatusPaid, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
