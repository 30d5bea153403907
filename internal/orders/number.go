package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberPrefix = "GAS"

// NewOrderNumber builds a human-readable order number: GAS-<yymmdd>-<6 random
// digits>. Uniqueness is enforced by the database index; callers retry once
// on collision.
func NewOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d", orderNumberPrefix, now.Format("060102"), n.Int64()), nil
}
