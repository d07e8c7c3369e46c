// Package decimal converts between displayable decimal prices/quantities
// and the compact fixed-point integer keys the book replica stores.
//
// Keying the ordered book by integer preserves exact price identity across
// updates and gives cheap, float-free comparisons; see internal/book.
package decimal

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrValueOutOfRange is returned when a display amount cannot be
// represented as a 64-bit storage amount at the requested scale.
var ErrValueOutOfRange = errors.New("decimal: value out of range")

// ErrNegative is returned when a negative display amount is passed to
// ToStorage. The book never stores negative amounts.
var ErrNegative = errors.New("decimal: negative amount not representable")

// ToStorage rounds d half-to-even to scale decimal places, requires d >= 0,
// and returns the raw integer mantissa after rescaling to zero fractional
// digits. Returns ErrValueOutOfRange if the rescaled value does not fit in
// a uint64 (i.e. the mantissa's high word would be non-zero).
func ToStorage(d decimal.Decimal, scale int32) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrNegative, d.String())
	}

	// RoundBank rounds half-to-even and normalizes the exponent to -scale,
	// so the coefficient below is exactly the integer mantissa at `scale`
	// fractional digits.
	rounded := d.RoundBank(scale)
	coeff := rounded.Coefficient()

	if coeff.BitLen() > 64 {
		return 0, fmt.Errorf("%w: %s exceeds uint64 at scale %d", ErrValueOutOfRange, d, scale)
	}

	return coeff.Uint64(), nil
}

// ToDisplay loads n as an integer mantissa and reapplies scale as
// fractional digits.
func ToDisplay(n uint64, scale int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), -scale)
}
