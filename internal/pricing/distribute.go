package pricing

import "github.com/shopspring/decimal"

// DistributeProportionally splits total across the given weights so the
// shares sum exactly to total after 2-decimal rounding. Every share except
// the last is total*weight/sum(weights) rounded half-up; the last share
// absorbs the rounding remainder. Zero weights fall back to an even split.
func DistributeProportionally(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}
	if len(weights) == 1 {
		shares[0] = total.Round(2)
		return shares
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}

	allocated := decimal.Zero
	for i := range weights[:len(weights)-1] {
		var share decimal.Decimal
		if sum.IsZero() {
			share = total.Div(decimal.NewFromInt(int64(len(weights)))).Round(2)
		} else {
			share = total.Mul(weights[i]).Div(sum).Round(2)
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[len(shares)-1] = total.Round(2).Sub(allocated)
	return shares
}
