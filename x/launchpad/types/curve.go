package types

import (
	"cosmossdk.io/math"
)

// QuoteBuy returns the fee-free amount of asset B paid out for amountAIn of asset A.
//
// With k = (reserveA + shift) * reserveB, the B reserve after the trade is
// k / (reserveA + shift + amountAIn) rounded up, so the output is rounded down
// and the pool never over-pays.
func QuoteBuy(reserveA, reserveB, shift, amountAIn math.Int) (math.Int, error) {
	if err := checkReserves(reserveA, reserveB, shift); err != nil {
		return math.ZeroInt(), err
	}
	if amountAIn.IsNil() || !amountAIn.IsPositive() {
		return math.ZeroInt(), ErrInsufficientInput.Wrap("buy amount must be positive")
	}

	virtualA, err := CheckedAdd(reserveA, shift)
	if err != nil {
		return math.ZeroInt(), err
	}
	newVirtualA, err := CheckedAdd(virtualA, amountAIn)
	if err != nil {
		return math.ZeroInt(), err
	}

	out, err := MulDiv(reserveB, amountAIn, newVirtualA)
	if err != nil {
		return math.ZeroInt(), err
	}
	if out.IsZero() {
		return math.ZeroInt(), ErrInsufficientInput.Wrapf("buy of %s yields no output", amountAIn)
	}
	if out.GTE(reserveB) {
		return math.ZeroInt(), ErrPoolEmpty.Wrapf("buy of %s would drain reserve %s", amountAIn, reserveB)
	}
	return out, nil
}

// QuoteSell returns the fee-free amount of asset A paid out for amountBIn of asset B.
// The payout is rounded down and may never reach into the virtual shift.
func QuoteSell(reserveA, reserveB, shift, amountBIn math.Int) (math.Int, error) {
	if err := checkReserves(reserveA, reserveB, shift); err != nil {
		return math.ZeroInt(), err
	}
	if amountBIn.IsNil() || !amountBIn.IsPositive() {
		return math.ZeroInt(), ErrInsufficientInput.Wrap("sell amount must be positive")
	}

	virtualA, err := CheckedAdd(reserveA, shift)
	if err != nil {
		return math.ZeroInt(), err
	}
	newReserveB, err := CheckedAdd(reserveB, amountBIn)
	if err != nil {
		return math.ZeroInt(), err
	}

	out, err := MulDiv(virtualA, amountBIn, newReserveB)
	if err != nil {
		return math.ZeroInt(), err
	}
	if out.IsZero() {
		return math.ZeroInt(), ErrInsufficientInput.Wrapf("sell of %s yields no output", amountBIn)
	}
	if out.GT(reserveA) {
		return math.ZeroInt(), ErrPoolEmpty.Wrapf("sell payout %s exceeds real reserve %s", out, reserveA)
	}
	return out, nil
}

// Invariant returns k = (reserveA + shift) * reserveB. The product of two
// 128-bit values always fits the 256-bit Int.
func Invariant(reserveA, reserveB, shift math.Int) (math.Int, error) {
	virtualA, err := CheckedAdd(reserveA, shift)
	if err != nil {
		return math.ZeroInt(), err
	}
	k, err := virtualA.SafeMul(reserveB)
	if err != nil {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("invariant: %v", err)
	}
	return k, nil
}

func checkReserves(reserveA, reserveB, shift math.Int) error {
	if !IsUint128(reserveA) || !IsUint128(reserveB) || !IsUint128(shift) {
		return ErrArithmeticOverflow.Wrap("reserves must be unsigned 128-bit values")
	}
	if reserveB.IsZero() {
		return ErrPoolEmpty.Wrap("asset B reserve is empty")
	}
	if reserveA.IsZero() && shift.IsZero() {
		return ErrPoolEmpty.Wrap("asset A side of the curve is empty")
	}
	return nil
}
