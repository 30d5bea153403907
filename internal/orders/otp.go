package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// deliveryCodeTTL is how long an issued delivery code stays valid.
const deliveryCodeTTL = 10 * time.Minute

// newDeliveryCode returns a 6-digit one-time code. Leading zeros are kept.
func newDeliveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating delivery code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
