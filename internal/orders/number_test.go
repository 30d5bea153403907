package orders

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	number, err := NewOrderNumber(now)
	if err != nil {
		t.Fatalf("new order number: %v", err)
	}
	if !regexp.MustCompile(`^GAS-260830-\d{6}$`).MatchString(number) {
		t.Fatalf("unexpected format %q", number)
	}
}
