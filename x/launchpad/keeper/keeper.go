package keeper

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/metrics"
	"github.com/openalpha/launchpad/x/launchpad/types"
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
}

const lockStripes = 64

// Keeper manages the launchpad module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string
	metrics    *metrics.Collector

	// read-modify-write of one pool is serialized; distinct pools rarely share a stripe
	poolLocks [lockStripes]sync.Mutex
	// factory locks are taken before pool locks, never after
	factoryLocks [lockStripes]sync.Mutex
}

// NewKeeper creates a new launchpad keeper. A nil bankKeeper keeps the
// module in ledger-only mode where no coins move.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/"+types.ModuleName),
	}
}

// SetMetrics enables prometheus reporting
func (k *Keeper) SetMetrics(c *metrics.Collector) {
	k.metrics = c
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// lockPool serializes access to one pool and returns the unlock func
func (k *Keeper) lockPool(poolID string) func() {
	return lockStripe(&k.poolLocks, poolID)
}

// lockFactory serializes factory creation and launch counting
func (k *Keeper) lockFactory(factoryID string) func() {
	return lockStripe(&k.factoryLocks, "factory/"+factoryID)
}

func lockStripe(stripes *[lockStripes]sync.Mutex, key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// ============ Params ============

// GetParams returns the module params
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.GetStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// SetParams stores the module params
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return err
	}
	k.GetStore(ctx).Set(types.ParamsKey, bz)
	return nil
}

// ============ Pool Operations ============

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool types.Pool) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	k.GetStore(ctx).Set(types.PoolKey(pool.ID()), bz)
	return nil
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) (types.Pool, bool) {
	bz := k.GetStore(ctx).Get(types.PoolKey(poolID))
	if bz == nil {
		return types.Pool{}, false
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		k.logger.Error("failed to decode pool", "pool_id", poolID, "error", err)
		return types.Pool{}, false
	}
	return pool, true
}

// mustGetPool returns the pool or ErrPoolNotFound
func (k *Keeper) mustGetPool(ctx sdk.Context, poolID string) (types.Pool, error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return types.Pool{}, types.ErrPoolNotFound.Wrap(poolID)
	}
	return pool, nil
}

// HasPool reports whether a pool exists
func (k *Keeper) HasPool(ctx sdk.Context, poolID string) bool {
	return k.GetStore(ctx).Has(types.PoolKey(poolID))
}

// GetAllPools returns all pools ordered by pool id
func (k *Keeper) GetAllPools(ctx sdk.Context) []types.Pool {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.PoolKeyPrefix)
	defer iterator.Close()

	var pools []types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, pool)
	}
	return pools
}

// GetPoolsByOwner returns the pools owned by owner
func (k *Keeper) GetPoolsByOwner(ctx sdk.Context, owner string) []types.Pool {
	prefix := types.PoolOwnerPrefix(owner)
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var pools []types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, pool)
	}
	return pools
}

// ============ Factory Operations ============

// SetFactory saves a factory to the store
func (k *Keeper) SetFactory(ctx sdk.Context, factory types.Factory) error {
	bz, err := json.Marshal(factory)
	if err != nil {
		return err
	}
	k.GetStore(ctx).Set(types.FactoryKey(factory.ID), bz)
	return nil
}

// GetFactory retrieves a factory from the store
func (k *Keeper) GetFactory(ctx sdk.Context, factoryID string) (types.Factory, bool) {
	bz := k.GetStore(ctx).Get(types.FactoryKey(factoryID))
	if bz == nil {
		return types.Factory{}, false
	}
	var factory types.Factory
	if err := json.Unmarshal(bz, &factory); err != nil {
		k.logger.Error("failed to decode factory", "factory_id", factoryID, "error", err)
		return types.Factory{}, false
	}
	return factory, true
}

// GetAllFactories returns all factories
func (k *Keeper) GetAllFactories(ctx sdk.Context) []types.Factory {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.FactoryKeyPrefix)
	defer iterator.Close()

	var factories []types.Factory
	for ; iterator.Valid(); iterator.Next() {
		var factory types.Factory
		if err := json.Unmarshal(iterator.Value(), &factory); err != nil {
			continue
		}
		factories = append(factories, factory)
	}
	return factories
}

// ============ Bank ============

// collect moves amount of denom from addr into the module account
func (k *Keeper) collect(ctx sdk.Context, addr, denom string, amount math.Int) error {
	if k.bankKeeper == nil || !amount.IsPositive() {
		return nil
	}
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return types.ErrInvalidAddress.Wrap(err.Error())
	}
	return k.bankKeeper.SendCoinsFromAccountToModule(ctx, acc, types.ModuleName, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}

// pay moves amount of denom from the module account to addr
func (k *Keeper) pay(ctx sdk.Context, addr, denom string, amount math.Int) error {
	if k.bankKeeper == nil || !amount.IsPositive() {
		return nil
	}
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return types.ErrInvalidAddress.Wrap(err.Error())
	}
	return k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, acc, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}

// mint creates amount of denom in the module account
func (k *Keeper) mint(ctx sdk.Context, denom string, amount math.Int) error {
	if k.bankKeeper == nil || !amount.IsPositive() {
		return nil
	}
	return k.bankKeeper.MintCoins(ctx, types.ModuleName, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}

// recordPool reports the post-transition pool state
func (k *Keeper) recordPool(pool types.Pool) {
	if k.metrics == nil {
		return
	}
	k.metrics.RecordPoolState(pool.ID(), pool.RealReserveA, pool.RealReserveB, pool.SpotPrice())
}
