package types

import (
	"errors"
	"math/big"
	"testing"

	"cosmossdk.io/math"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, d math.Int
		down    math.Int
		up      math.Int
		wantErr error
	}{
		{"exact", math.NewInt(10), math.NewInt(4), math.NewInt(5), math.NewInt(8), math.NewInt(8), nil},
		{"remainder", math.NewInt(10), math.NewInt(3), math.NewInt(4), math.NewInt(7), math.NewInt(8), nil},
		{"zero numerator", math.ZeroInt(), math.NewInt(3), math.NewInt(4), math.ZeroInt(), math.ZeroInt(), nil},
		{"wide intermediate", MaxUint128, MaxUint128, MaxUint128, MaxUint128, MaxUint128, nil},
		{"zero denominator", math.NewInt(1), math.NewInt(1), math.ZeroInt(), math.Int{}, math.Int{}, ErrDivisionByZero},
		{"result above 128 bits", MaxUint128, MaxUint128, math.OneInt(), math.Int{}, math.Int{}, ErrArithmeticOverflow},
		{"negative operand", math.NewInt(-1), math.NewInt(1), math.OneInt(), math.Int{}, math.Int{}, ErrArithmeticOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			down, err := MulDiv(tt.a, tt.b, tt.d)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MulDiv: expected %v, got %v", tt.wantErr, err)
				}
				if _, err := MulDivUp(tt.a, tt.b, tt.d); !errors.Is(err, tt.wantErr) {
					t.Fatalf("MulDivUp: expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MulDiv: unexpected error: %v", err)
			}
			if !down.Equal(tt.down) {
				t.Errorf("MulDiv: expected %s, got %s", tt.down, down)
			}
			up, err := MulDivUp(tt.a, tt.b, tt.d)
			if err != nil {
				t.Fatalf("MulDivUp: unexpected error: %v", err)
			}
			if !up.Equal(tt.up) {
				t.Errorf("MulDivUp: expected %s, got %s", tt.up, up)
			}
		})
	}
}

func TestMulDivProductOverflow(t *testing.T) {
	a := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	b := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 100))
	if _, err := MulDiv(a, b, math.OneInt()); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected overflow for 2^300 product, got %v", err)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := CheckedAdd(MaxUint128, math.OneInt()); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected overflow past 2^128-1, got %v", err)
	}
	sum, err := CheckedAdd(math.NewInt(2), math.NewInt(3))
	if err != nil || !sum.Equal(math.NewInt(5)) {
		t.Errorf("expected 5, got %s (%v)", sum, err)
	}

	if _, err := CheckedSub(math.NewInt(2), math.NewInt(3)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected underflow, got %v", err)
	}
	diff, err := CheckedSub(math.NewInt(3), math.NewInt(3))
	if err != nil || !diff.IsZero() {
		t.Errorf("expected 0, got %s (%v)", diff, err)
	}

	if _, err := ToUint64(math.NewIntFromUint64(^uint64(0)).AddRaw(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected u64 overflow, got %v", err)
	}
	if _, err := AddUint64(^uint64(0), 1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected u64 counter overflow, got %v", err)
	}
}
