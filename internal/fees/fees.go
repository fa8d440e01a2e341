// Package fees holds the platform fee policy applied when a succeeded order
// is turned into a ledger transaction.
package fees

import "github.com/shopspring/decimal"

// Physical fulfillment (printing, shipping) costs the platform materially
// more than digital delivery, hence the differentiated rates.
var (
	digitalRate  = decimal.NewFromFloat(0.20)
	physicalRate = decimal.NewFromFloat(0.35)
)

// Breakdown splits a gross amount into platform fees and the association's
// net. amount = Fees + NetAmount always.
type Breakdown struct {
	Amount    decimal.Decimal
	Fees      decimal.Decimal
	NetAmount decimal.Decimal
}

// Rate returns the fee percentage for a line item classification.
func Rate(isDigital bool) decimal.Decimal {
	if isDigital {
		return digitalRate
	}
	return physicalRate
}

// Compute applies the fee policy to a gross amount. No rounding happens here:
// monetary figures are truncated to 2 decimal places at the point of
// persistence, not before, so partial sums do not compound rounding error.
func Compute(amount decimal.Decimal, isDigital bool) Breakdown {
	f := amount.Mul(Rate(isDigital))
	return Breakdown{
		Amount:    amount,
		Fees:      f,
		NetAmount: amount.Sub(f),
	}
}
