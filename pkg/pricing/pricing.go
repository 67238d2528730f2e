package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

// Amounts are carried at full decimal precision end to end. Rounding to two
// places happens once, at the serialization boundary, so repeated
// recomputation never compounds rounding error.

var one = decimal.NewFromInt(1)

// CentTolerance is the maximum drift allowed between a recomputed amount and
// its conserved counterpart (share times count versus original price).
var CentTolerance = decimal.New(1, -2)

// LineTotal returns the pre-split price of a line: unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SplitShare divides an original price evenly across splitCount participants.
func SplitShare(originalPrice decimal.Decimal, splitCount int) (decimal.Decimal, error) {
	if splitCount <= 0 {
		return decimal.Zero, pkgerrors.New(
			pkgerrors.CodeDivision,
			fmt.Sprintf("split count must be positive, got %d", splitCount),
		).WithDetails(map[string]any{"split_count": splitCount})
	}
	return originalPrice.Div(decimal.NewFromInt(int64(splitCount))), nil
}

// WithVAT returns the amount grossed up by the given VAT rate.
func WithVAT(amount, vatRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(one.Add(vatRate))
}

// VATPortion returns only the VAT component for a net amount.
func VATPortion(amount, vatRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(vatRate)
}

// Round2 rounds an amount to two decimal places. Display and storage of
// final bill figures go through here; intermediate math never does.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Cents converts an amount to integer minor units (thebe) for payment APIs.
func Cents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// Conserved reports whether share times count reproduces the original price
// within CentTolerance.
func Conserved(share decimal.Decimal, splitCount int, originalPrice decimal.Decimal) bool {
	recombined := share.Mul(decimal.NewFromInt(int64(splitCount)))
	return recombined.Sub(originalPrice).Abs().LessThanOrEqual(CentTolerance)
}
