package enums

import "fmt"

// TaxType describes how the platform-wide tax is computed.
type TaxType string

const (
	TaxTypeNone       TaxType = "none"
	TaxTypePercentage TaxType = "percentage"
	TaxTypeFixed      TaxType = "fixed"
)

var validTaxTypes = []TaxType{TaxTypeNone, TaxTypePercentage, TaxTypeFixed}

// String implements fmt.Stringer.
func (t TaxType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxType.
func (t TaxType) IsValid() bool {
	for _, candidate := range validTaxTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxType converts raw input into a TaxType.
func ParseTaxType(value string) (TaxType, error) {
	for _, candidate := range validTaxTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax type %q", value)
}
