package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Params holds module-wide settings
type Params struct {
	// ProtocolFeeAuthority is the only account allowed to claim protocol fees
	ProtocolFeeAuthority string `json:"protocol_fee_authority"`
}

// DefaultParams returns params with no protocol fee authority set
func DefaultParams() Params {
	return Params{}
}

// Validate checks the params
func (p Params) Validate() error {
	if p.ProtocolFeeAuthority == "" {
		return nil
	}
	if _, err := sdk.AccAddressFromBech32(p.ProtocolFeeAuthority); err != nil {
		return ErrInvalidAddress.Wrapf("protocol fee authority: %v", err)
	}
	return nil
}

// GenesisState is the launchpad module's genesis state
type GenesisState struct {
	Params    Params    `json:"params"`
	Factories []Factory `json:"factories"`
	Pools     []Pool    `json:"pools"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:    DefaultParams(),
		Factories: []Factory{},
		Pools:     []Pool{},
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	factories := make(map[string]bool, len(gs.Factories))
	for _, f := range gs.Factories {
		if err := f.Validate(); err != nil {
			return ErrInvalidGenesisState.Wrapf("factory %s: %v", f.ID, err)
		}
		if factories[f.ID] {
			return ErrInvalidGenesisState.Wrapf("duplicate factory %s", f.ID)
		}
		factories[f.ID] = true
	}

	pools := make(map[string]bool, len(gs.Pools))
	for _, p := range gs.Pools {
		if err := p.Validate(); err != nil {
			return ErrInvalidGenesisState.Wrapf("pool %s: %v", p.ID(), err)
		}
		if pools[p.ID()] {
			return ErrInvalidGenesisState.Wrapf("duplicate pool %s", p.ID())
		}
		if p.FactoryID != "" && !factories[p.FactoryID] {
			return ErrInvalidGenesisState.Wrapf("pool %s references unknown factory %s", p.ID(), p.FactoryID)
		}
		pools[p.ID()] = true
	}
	return nil
}
