package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// InitGenesis loads the module state from genesis
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, factory := range gs.Factories {
		if err := k.SetFactory(ctx, factory); err != nil {
			return err
		}
	}
	for _, pool := range gs.Pools {
		if err := k.SetPool(ctx, pool); err != nil {
			return err
		}
	}
	k.logger.Info("Genesis loaded", "factories", len(gs.Factories), "pools", len(gs.Pools))
	return nil
}

// ExportGenesis returns the current module state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	gs.Params = k.GetParams(ctx)
	if factories := k.GetAllFactories(ctx); factories != nil {
		gs.Factories = factories
	}
	if pools := k.GetAllPools(ctx); pools != nil {
		gs.Pools = pools
	}
	return gs
}
