package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// CreateFactory stores a new launch template
func (k *Keeper) CreateFactory(ctx sdk.Context, factory types.Factory) error {
	if err := factory.Validate(); err != nil {
		return err
	}

	unlock := k.lockFactory(factory.ID)
	defer unlock()

	if _, found := k.GetFactory(ctx, factory.ID); found {
		return types.ErrFactoryExists.Wrap(factory.ID)
	}
	factory.LaunchCount = 0
	if err := k.SetFactory(ctx, factory); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateFactory,
			sdk.NewAttribute(types.AttributeKeyFactoryID, factory.ID),
			sdk.NewAttribute(types.AttributeKeyOwner, factory.Owner),
			sdk.NewAttribute(types.AttributeKeyAssetA, factory.QuoteAsset),
		),
	)
	k.logger.Info("Factory created", "factory_id", factory.ID, "owner", factory.Owner, "quote_asset", factory.QuoteAsset)
	return nil
}

// Launch mints a new project asset and opens its pool from a factory. When
// devBuy is set the owner buys into the pool in the same call.
func (k *Keeper) Launch(ctx sdk.Context, factoryID, owner, symbol string, devBuy *math.Int, tick uint64) (Receipt, error) {
	unlockFactory := k.lockFactory(factoryID)
	defer unlockFactory()

	factory, found := k.GetFactory(ctx, factoryID)
	if !found {
		return Receipt{}, types.ErrFactoryNotFound.Wrap(factoryID)
	}
	assetB := types.LaunchDenom(factoryID, owner, symbol)
	if err := sdk.ValidateDenom(assetB); err != nil {
		return Receipt{}, types.ErrInvalidDenom.Wrapf("%s: %v", assetB, err)
	}
	poolID := types.PoolID(owner, factory.QuoteAsset, assetB)

	unlock := k.lockPool(poolID)
	defer unlock()

	if k.HasPool(ctx, poolID) {
		return Receipt{}, types.ErrPoolAlreadyExists.Wrap(poolID)
	}
	pool, dev, err := factory.Launch(owner, assetB, devBuy, owner, tick)
	if err != nil {
		return Receipt{}, err
	}

	cacheCtx, write := ctx.CacheContext()
	if err := k.mint(cacheCtx, assetB, factory.InitialRealReserveB); err != nil {
		return Receipt{}, err
	}
	if dev != nil {
		if err := k.collect(cacheCtx, owner, factory.QuoteAsset, dev.AmountIn); err != nil {
			return Receipt{}, err
		}
		if err := k.pay(cacheCtx, owner, assetB, dev.AmountOut); err != nil {
			return Receipt{}, err
		}
	}
	if err := k.SetPool(cacheCtx, pool); err != nil {
		return Receipt{}, err
	}
	factory.LaunchCount++
	if err := k.SetFactory(cacheCtx, factory); err != nil {
		return Receipt{}, err
	}
	write()

	devOut := math.ZeroInt()
	if dev != nil {
		devOut = dev.AmountOut
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeLaunch,
			sdk.NewAttribute(types.AttributeKeyFactoryID, factoryID),
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, owner),
			sdk.NewAttribute(types.AttributeKeyAssetB, assetB),
			sdk.NewAttribute(types.AttributeKeyAmountOut, devOut.String()),
			sdk.NewAttribute(types.AttributeKeyTick, strconv.FormatUint(tick, 10)),
		),
	)
	k.logger.Info("Pool launched",
		"factory_id", factoryID,
		"pool_id", poolID,
		"owner", owner,
		"dev_buy_out", devOut.String(),
	)
	if k.metrics != nil {
		k.metrics.RecordLaunch(factoryID)
	}
	k.recordPool(pool)

	receipt := Receipt{PoolID: poolID, Trader: owner, Tick: tick, Pool: pool}
	if dev != nil {
		receipt.Result = *dev
		receipt.ID = receiptID(poolID, tick, *dev)
	}
	return receipt, nil
}

// CreatePool opens a pool without a factory. The creator funds both
// initial real reserves.
func (k *Keeper) CreatePool(
	ctx sdk.Context,
	creator, assetA, assetB string,
	shift, reserveA, reserveB math.Int,
	fees types.FeeSchedule,
	tick uint64,
) (types.Pool, error) {
	pool, err := types.NewPool(creator, assetA, assetB, shift, reserveA, reserveB, fees, tick)
	if err != nil {
		return types.Pool{}, err
	}
	poolID := pool.ID()

	unlock := k.lockPool(poolID)
	defer unlock()

	if k.HasPool(ctx, poolID) {
		return types.Pool{}, types.ErrPoolAlreadyExists.Wrap(poolID)
	}

	cacheCtx, write := ctx.CacheContext()
	if err := k.collect(cacheCtx, creator, assetA, reserveA); err != nil {
		return types.Pool{}, err
	}
	if err := k.collect(cacheCtx, creator, assetB, reserveB); err != nil {
		return types.Pool{}, err
	}
	if err := k.SetPool(cacheCtx, pool); err != nil {
		return types.Pool{}, err
	}
	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreatePool,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, creator),
			sdk.NewAttribute(types.AttributeKeyAssetA, assetA),
			sdk.NewAttribute(types.AttributeKeyAssetB, assetB),
		),
	)
	k.logger.Info("Pool created", "pool_id", poolID, "owner", creator)
	k.recordPool(pool)
	return pool, nil
}

// SetPoolEnabled toggles swapping on a pool. Only the owner may toggle.
func (k *Keeper) SetPoolEnabled(ctx sdk.Context, owner, poolID string, enabled bool, tick uint64) (types.Pool, error) {
	unlock := k.lockPool(poolID)
	defer unlock()

	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return types.Pool{}, err
	}
	next, err := pool.SetEnabled(owner, enabled, tick)
	if err != nil {
		return types.Pool{}, err
	}
	if err := k.SetPool(ctx, next); err != nil {
		return types.Pool{}, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolEnabled,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyEnabled, strconv.FormatBool(enabled)),
		),
	)
	k.logger.Info("Pool state changed", "pool_id", poolID, "enabled", enabled)
	return next, nil
}
