package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxDecimals bounds the display precision of launched assets
const MaxDecimals uint8 = 18

// Factory is a launch template. Every pool it launches shares the same
// curve shape and fee template.
type Factory struct {
	ID                  string      `json:"id"`
	Owner               string      `json:"owner"`
	QuoteAsset          string      `json:"quote_asset"`
	Shift               math.Int    `json:"shift"`
	InitialRealReserveB math.Int    `json:"initial_real_reserve_b"`
	FeeTemplate         FeeSchedule `json:"fee_template"` // Reference is set per launch
	Decimals            uint8       `json:"decimals"`
	MetadataMutable     bool        `json:"metadata_mutable"`
	LaunchCount         uint64      `json:"launch_count"`
}

// NewFactory validates and creates a factory
func NewFactory(
	id, owner, quoteAsset string,
	shift, initialRealReserveB math.Int,
	feeTemplate FeeSchedule,
	decimals uint8,
	metadataMutable bool,
) (Factory, error) {
	f := Factory{
		ID:                  id,
		Owner:               owner,
		QuoteAsset:          quoteAsset,
		Shift:               shift,
		InitialRealReserveB: initialRealReserveB,
		FeeTemplate:         feeTemplate,
		Decimals:            decimals,
		MetadataMutable:     metadataMutable,
	}
	f.FeeTemplate.Reference = 0
	if err := f.Validate(); err != nil {
		return Factory{}, err
	}
	return f, nil
}

// Validate checks the stored record
func (f Factory) Validate() error {
	if f.ID == "" {
		return ErrFactoryNotFound.Wrap("factory id is empty")
	}
	if f.Owner == "" {
		return ErrInvalidAddress.Wrap("factory owner is empty")
	}
	if err := ValidatePoolIDSegment(f.ID, ErrFactoryNotFound); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(f.QuoteAsset); err != nil {
		return ErrInvalidDenom.Wrapf("quote asset: %v", err)
	}
	if err := ValidatePoolIDSegment(f.QuoteAsset, ErrInvalidDenom); err != nil {
		return err
	}
	if f.Shift.IsNil() || f.InitialRealReserveB.IsNil() {
		return ErrInvalidInitialReserves.Wrap("shift and initial reserve must be set")
	}
	if !f.Shift.IsPositive() || !IsUint128(f.Shift) {
		return ErrInvalidInitialReserves.Wrapf("shift %s must be a positive 128-bit value", f.Shift)
	}
	if !f.InitialRealReserveB.IsPositive() || !IsUint128(f.InitialRealReserveB) {
		return ErrInvalidInitialReserves.Wrapf("initial reserve %s must be a positive 128-bit value", f.InitialRealReserveB)
	}
	if f.Decimals > MaxDecimals {
		return ErrInvalidInitialReserves.Wrapf("decimals %d exceeds %d", f.Decimals, MaxDecimals)
	}
	return f.FeeTemplate.Validate()
}

// Launch creates a new pool from the template. The fee reference is the
// launch tick. When devBuy is set, one buy is executed as devCaller right
// after creation and its result is returned alongside the pool.
// The factory itself is not modified.
func (f Factory) Launch(owner, assetB string, devBuy *math.Int, devCaller string, tick uint64) (Pool, *SwapResult, error) {
	fees := f.FeeTemplate
	fees.Reference = tick

	pool, err := NewPool(owner, f.QuoteAsset, assetB, f.Shift, math.ZeroInt(), f.InitialRealReserveB, fees, tick)
	if err != nil {
		return Pool{}, nil, err
	}
	pool.FactoryID = f.ID

	if devBuy == nil {
		return pool, nil, nil
	}
	bought, res, err := pool.Buy(*devBuy, math.ZeroInt(), devCaller, tick)
	if err != nil {
		return Pool{}, nil, err
	}
	return bought, &res, nil
}

// LaunchDenom names the project asset minted for a launch
func LaunchDenom(factoryID, owner, symbol string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ModuleName, factoryID, owner, symbol)
}
