package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// BpsDenominator is the number of basis points in 100%
const BpsDenominator = 10_000

// MaxUint128 bounds every reserve and shift value
var MaxUint128 = math.NewIntFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)),
)

// MulDiv computes floor(a * b / denom). The product is carried in 256 bits and
// the result must fit in 128 bits.
func MulDiv(a, b, denom math.Int) (math.Int, error) {
	q, _, err := mulDivRem(a, b, denom)
	if err != nil {
		return math.ZeroInt(), err
	}
	return q, nil
}

// MulDivUp computes ceil(a * b / denom) under the same bounds as MulDiv.
func MulDivUp(a, b, denom math.Int) (math.Int, error) {
	q, rem, err := mulDivRem(a, b, denom)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !rem {
		return q, nil
	}
	return CheckedAdd(q, math.OneInt())
}

func mulDivRem(a, b, denom math.Int) (math.Int, bool, error) {
	if a.IsNil() || b.IsNil() || denom.IsNil() {
		return math.ZeroInt(), false, ErrArithmeticOverflow.Wrap("nil operand")
	}
	if a.IsNegative() || b.IsNegative() || denom.IsNegative() {
		return math.ZeroInt(), false, ErrArithmeticOverflow.Wrap("negative operand")
	}
	if denom.IsZero() {
		return math.ZeroInt(), false, ErrDivisionByZero
	}
	product, err := a.SafeMul(b)
	if err != nil {
		return math.ZeroInt(), false, ErrArithmeticOverflow.Wrapf("%s * %s: %v", a, b, err)
	}
	q := product.Quo(denom)
	if q.GT(MaxUint128) {
		return math.ZeroInt(), false, ErrArithmeticOverflow.Wrapf("%s * %s / %s exceeds 128 bits", a, b, denom)
	}
	return q, !product.Mod(denom).IsZero(), nil
}

// CheckedAdd adds two unsigned 128-bit values.
func CheckedAdd(a, b math.Int) (math.Int, error) {
	sum, err := a.SafeAdd(b)
	if err != nil {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("%s + %s: %v", a, b, err)
	}
	if sum.GT(MaxUint128) {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("%s + %s exceeds 128 bits", a, b)
	}
	return sum, nil
}

// CheckedSub subtracts b from a and rejects results below zero.
func CheckedSub(a, b math.Int) (math.Int, error) {
	diff, err := a.SafeSub(b)
	if err != nil {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("%s - %s: %v", a, b, err)
	}
	if diff.IsNegative() {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("%s - %s underflows", a, b)
	}
	return diff, nil
}

// ToUint64 narrows a value into the 64-bit fee counters.
func ToUint64(v math.Int) (uint64, error) {
	if v.IsNegative() || !v.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("%s does not fit in 64 bits", v)
	}
	return v.Uint64(), nil
}

// AddUint64 adds to a 64-bit fee counter.
func AddUint64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow.Wrapf("%d + %d exceeds 64 bits", a, b)
	}
	return sum, nil
}

// IsUint128 reports whether v is a valid unsigned 128-bit value
func IsUint128(v math.Int) bool {
	return !v.IsNil() && !v.IsNegative() && v.LTE(MaxUint128)
}
