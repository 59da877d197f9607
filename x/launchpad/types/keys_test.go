package types

import (
	"bytes"
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

func TestPoolIDUnambiguous(t *testing.T) {
	owner := sdk.AccAddress([]byte("owner_______________")).String()

	a := PoolID(owner, "ibc/xyz", "abc")
	b := PoolID(owner, "ibc", "xyz/abc")
	if a == b {
		t.Fatalf("distinct pairs share pool id %s", a)
	}
	if bytes.Equal(PoolKey(a), PoolKey(b)) {
		t.Fatalf("distinct pairs share store key %x", PoolKey(a))
	}

	prefix := PoolOwnerPrefix(owner)
	for _, id := range []string{a, b} {
		if !bytes.HasPrefix(PoolKey(id), prefix) {
			t.Errorf("pool %s is outside its owner prefix", id)
		}
	}
	// an owner that extends another owner's address does not share its prefix
	if bytes.HasPrefix(PoolKey(PoolID(owner+"x", "ua", "ub")), prefix) {
		t.Error("owner prefix matched a different owner")
	}
}

func TestPoolIDSeparatorRejected(t *testing.T) {
	fees := testFeeSchedule()
	tests := []struct {
		name    string
		owner   string
		assetA  string
		assetB  string
		wantErr error
	}{
		{"asset A", testOwner, "ibc|xyz", "abc", ErrInvalidDenom},
		{"asset B", testOwner, "abc", "xyz|abc", ErrInvalidDenom},
		{"owner", "own|er", "ua", "ub", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPool(tt.owner, tt.assetA, tt.assetB, testShift, math.ZeroInt(), testReserveB, fees, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	msg := MsgCreatePool{
		Creator:         sdk.AccAddress([]byte("creator_____________")).String(),
		AssetA:          "ibc|xyz",
		AssetB:          "abc",
		Shift:           "1000",
		InitialReserveB: "1000",
		FeeSchedule:     fees,
	}
	if err := msg.ValidateBasic(); !errors.Is(err, ErrInvalidDenom) {
		t.Errorf("expected ErrInvalidDenom, got %v", err)
	}
	msg.AssetA = "ibc/xyz"
	if err := msg.ValidateBasic(); err != nil {
		t.Errorf("expected slash denom to pass, got %v", err)
	}
}
