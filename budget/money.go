package budget

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount as dollars with thousands separators and
// two decimals, e.g. $1,000,000.00.
func FormatMoney(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

// Amount bounds. The exponent window is checked before any comparison,
// since rescaling a value like 1e50000000 materializes every digit.
const (
	maxAmountExponent = 15
	minAmountExponent = -8
	maxAmountDigits   = 24
)

// MaxAmount is the largest absolute amount ParseAmount accepts.
var MaxAmount = decimal.New(1, maxAmountExponent)

// ErrAmountOutOfRange is returned by ParseAmount for amounts too large or
// too precise to store.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ParseAmount parses a decimal amount as typed in a chat command.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if e := d.Exponent(); e > maxAmountExponent || e < minAmountExponent || d.NumDigits() > maxAmountDigits {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	return d, nil
}
