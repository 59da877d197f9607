package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// QueryServer defines the launchpad QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Params returns the module params
func (q *QueryServer) Params(ctx context.Context) (types.Params, error) {
	return q.keeper.GetParams(sdk.UnwrapSDKContext(ctx)), nil
}

// Pool returns a pool by ID
func (q *QueryServer) Pool(ctx context.Context, poolID string) (types.Pool, error) {
	return q.keeper.mustGetPool(sdk.UnwrapSDKContext(ctx), poolID)
}

// Pools returns all pools, optionally filtered by owner
func (q *QueryServer) Pools(ctx context.Context, owner string, offset, limit uint64) ([]types.Pool, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	var all []types.Pool
	if owner != "" {
		all = q.keeper.GetPoolsByOwner(sdkCtx, owner)
	} else {
		all = q.keeper.GetAllPools(sdkCtx)
	}

	total := uint64(len(all))

	// Apply pagination
	if offset >= total {
		return []types.Pool{}, total, nil
	}

	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}

	return all[offset:end], total, nil
}

// Factory returns a factory by ID
func (q *QueryServer) Factory(ctx context.Context, factoryID string) (types.Factory, error) {
	factory, found := q.keeper.GetFactory(sdk.UnwrapSDKContext(ctx), factoryID)
	if !found {
		return types.Factory{}, types.ErrFactoryNotFound.Wrap(factoryID)
	}
	return factory, nil
}

// Factories returns all factories
func (q *QueryServer) Factories(ctx context.Context) ([]types.Factory, error) {
	return q.keeper.GetAllFactories(sdk.UnwrapSDKContext(ctx)), nil
}

// Quote returns a read-only swap quote at tick for caller
func (q *QueryServer) Quote(ctx context.Context, poolID, side, caller string, amountIn math.Int, tick uint64) (types.SwapQuote, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	switch side {
	case types.SideBuy:
		return q.keeper.QuoteBuy(sdkCtx, caller, poolID, amountIn, tick)
	case types.SideSell:
		return q.keeper.QuoteSell(sdkCtx, caller, poolID, amountIn, tick)
	default:
		return types.SwapQuote{}, types.ErrInsufficientInput.Wrapf("unknown side %q", side)
	}
}
