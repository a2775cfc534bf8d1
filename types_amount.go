package chainbean

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// nativeDecimals is the smallest-unit exponent of the native asset (wei per ETH).
const nativeDecimals = 18

// nativeSymbol is the ticker of the native asset.
const nativeSymbol = "ETH"

// ScaleUnits converts a raw smallest-unit integer string into a major-unit
// decimal, dividing by 10^tokenDecimal. The explorer delivers both fields as
// decimal strings.
func ScaleUnits(value, tokenDecimal string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit value %q: %w", value, err)
	}
	exp, err := strconv.ParseInt(tokenDecimal, 10, 32)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token decimal %q: %w", tokenDecimal, err)
	}
	return v.Shift(int32(-exp)), nil
}

// mulUnits multiplies two raw unit strings (e.g. gasUsed × gasPrice) and
// scales the product by the native exponent.
func mulUnits(a, b string) (decimal.Decimal, error) {
	x, err := decimal.NewFromString(a)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit value %q: %w", a, err)
	}
	y, err := decimal.NewFromString(b)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit value %q: %w", b, err)
	}
	return x.Mul(y).Shift(-nativeDecimals), nil
}
