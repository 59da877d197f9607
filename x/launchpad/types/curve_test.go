package types

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
)

func TestQuoteBuy(t *testing.T) {
	tests := []struct {
		name      string
		reserveA  int64
		reserveB  int64
		shift     int64
		amountIn  int64
		wantOut   int64
		wantError error
	}{
		// floor(1e12 * 1e9 / (1e11 + 1e9))
		{"launch curve", 0, 1_000_000_000_000, 100_000_000_000, 1_000_000_000, 9_900_990_099, nil},
		// floor(10 * 5 / 15) rounds down
		{"rounds toward pool", 0, 10, 10, 5, 3, nil},
		{"uses real A reserve", 50, 1_000, 50, 100, 500, nil},
		{"zero input", 0, 1_000, 100, 0, 0, ErrInsufficientInput},
		{"output rounds to zero", 0, 10, 1_000, 1, 0, ErrInsufficientInput},
		{"empty B reserve", 0, 0, 100, 10, 0, ErrPoolEmpty},
		{"empty A side", 0, 1_000, 0, 10, 0, ErrPoolEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := QuoteBuy(math.NewInt(tt.reserveA), math.NewInt(tt.reserveB), math.NewInt(tt.shift), math.NewInt(tt.amountIn))
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("expected %v, got %v", tt.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(math.NewInt(tt.wantOut)) {
				t.Errorf("expected %d, got %s", tt.wantOut, out)
			}
		})
	}
}

func TestQuoteSell(t *testing.T) {
	tests := []struct {
		name      string
		reserveA  int64
		reserveB  int64
		shift     int64
		amountIn  int64
		wantOut   int64
		wantError error
	}{
		// floor((100 + 100) * 100 / (900 + 100))
		{"symmetric to buy", 100, 900, 100, 100, 20, nil},
		{"rounds toward pool", 10, 20, 10, 7, 5, nil},
		{"cannot pay out shift", 0, 1_000, 100, 1_000, 0, ErrPoolEmpty},
		{"zero input", 10, 1_000, 100, 0, 0, ErrInsufficientInput},
		{"output rounds to zero", 10, 1_000_000, 100, 1, 0, ErrInsufficientInput},
		{"empty B reserve", 10, 0, 100, 10, 0, ErrPoolEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := QuoteSell(math.NewInt(tt.reserveA), math.NewInt(tt.reserveB), math.NewInt(tt.shift), math.NewInt(tt.amountIn))
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("expected %v, got %v", tt.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(math.NewInt(tt.wantOut)) {
				t.Errorf("expected %d, got %s", tt.wantOut, out)
			}
		})
	}
}

func TestQuoteRejectsOutOfRangeReserves(t *testing.T) {
	tooBig := MaxUint128.AddRaw(1)
	if _, err := QuoteBuy(tooBig, math.NewInt(10), math.NewInt(10), math.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if _, err := QuoteSell(math.NewInt(10), tooBig, math.NewInt(10), math.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestQuoteBuyNeverIncreasesK(t *testing.T) {
	reserveA, reserveB, shift := math.NewInt(7), math.NewInt(1_000_003), math.NewInt(997)
	k, _ := Invariant(reserveA, reserveB, shift)

	for _, in := range []int64{1, 2, 3, 17, 999, 12_345, 1_000_000} {
		out, err := QuoteBuy(reserveA, reserveB, shift, math.NewInt(in))
		if err != nil {
			t.Fatalf("buy %d: %v", in, err)
		}
		kAfter, _ := Invariant(reserveA.AddRaw(in), reserveB.Sub(out), shift)
		if kAfter.LT(k) {
			t.Errorf("buy %d: k shrank from %s to %s", in, k, kAfter)
		}
	}
}
