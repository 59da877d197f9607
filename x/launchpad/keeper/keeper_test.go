package keeper

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

var (
	ownerAddr     = sdk.AccAddress([]byte("owner_______________")).String()
	traderAddr    = sdk.AccAddress([]byte("trader______________")).String()
	authorityAddr = sdk.AccAddress([]byte("authority___________")).String()
)

const quoteDenom = "uatom"

// mockBank tracks balances in memory; module accounts are keyed by name
type mockBank struct {
	mu       sync.Mutex
	balances map[string]sdk.Coins
}

func newMockBank() *mockBank {
	return &mockBank{balances: make(map[string]sdk.Coins)}
}

func (b *mockBank) fund(addr string, coins sdk.Coins) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = b.balances[addr].Add(coins...)
}

func (b *mockBank) balance(addr, denom string) math.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[addr].AmountOf(denom)
}

func (b *mockBank) move(from, to string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.balances[from].IsAllGTE(amt) {
		return sdkerrors.ErrInsufficientFunds.Wrapf("%s has %s, needs %s", from, b.balances[from], amt)
	}
	b.balances[from] = b.balances[from].Sub(amt...)
	b.balances[to] = b.balances[to].Add(amt...)
	return nil
}

func (b *mockBank) SendCoinsFromAccountToModule(_ context.Context, sender sdk.AccAddress, module string, amt sdk.Coins) error {
	return b.move(sender.String(), module, amt)
}

func (b *mockBank) SendCoinsFromModuleToAccount(_ context.Context, module string, recipient sdk.AccAddress, amt sdk.Coins) error {
	return b.move(module, recipient.String(), amt)
}

func (b *mockBank) MintCoins(_ context.Context, module string, amt sdk.Coins) error {
	b.fund(module, amt)
	return nil
}

func setupKeeper(tb testing.TB, bank BankKeeper) (*Keeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(tb, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore.CacheMultiStore(), cmtproto.Header{Height: 1}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	k := NewKeeper(cdc, storeKey, bank, authorityAddr, log.NewNopLogger())
	require.NoError(tb, k.SetParams(ctx, types.Params{ProtocolFeeAuthority: authorityAddr}))
	return k, ctx
}

func testFees(exemptBuys uint16) types.FeeSchedule {
	return types.FeeSchedule{
		NormalizationPeriod: 100,
		Decay:               5,
		RoyaltiesBps:        100,
		FeeExemptBuys:       exemptBuys,
	}
}

func createTestFactory(t *testing.T, k *Keeper, ctx sdk.Context, id string, exemptBuys uint16) types.Factory {
	t.Helper()
	f, err := types.NewFactory(id, ownerAddr, quoteDenom,
		math.NewInt(100_000_000_000), math.NewInt(1_000_000_000_000), testFees(exemptBuys), 6, false)
	require.NoError(t, err)
	require.NoError(t, k.CreateFactory(ctx, f))
	return f
}

func TestCreateFactory(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	f := createTestFactory(t, k, ctx, "pump", 0)

	stored, found := k.GetFactory(ctx, "pump")
	require.True(t, found)
	require.Equal(t, f.ID, stored.ID)
	require.True(t, f.Shift.Equal(stored.Shift))

	err := k.CreateFactory(ctx, f)
	require.ErrorIs(t, err, types.ErrFactoryExists)

	bad := f
	bad.ID = "bad"
	bad.Shift = math.ZeroInt()
	require.ErrorIs(t, k.CreateFactory(ctx, bad), types.ErrInvalidInitialReserves)
}

func TestLaunchWithDevBuy(t *testing.T) {
	bank := newMockBank()
	bank.fund(ownerAddr, sdk.NewCoins(sdk.NewInt64Coin(quoteDenom, 10_000_000_000)))
	k, ctx := setupKeeper(t, bank)
	createTestFactory(t, k, ctx, "pump", 1)

	devBuy := math.NewInt(1_000_000_000)
	receipt, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", &devBuy, 10)
	require.NoError(t, err)

	assetB := types.LaunchDenom("pump", ownerAddr, "DOGE")
	require.Equal(t, types.PoolID(ownerAddr, quoteDenom, assetB), receipt.PoolID)
	require.True(t, receipt.Result.Exempt)
	require.Equal(t, "9900990099", receipt.Result.AmountOut.String())
	require.NotEmpty(t, receipt.ID)

	pool, found := k.GetPool(ctx, receipt.PoolID)
	require.True(t, found)
	require.Equal(t, uint64(10), pool.FeeSchedule.Reference)
	require.Equal(t, uint16(0), pool.FeeSchedule.FeeExemptBuys)
	require.Equal(t, "pump", pool.FactoryID)

	factory, _ := k.GetFactory(ctx, "pump")
	require.Equal(t, uint64(1), factory.LaunchCount)

	// coins follow the ledger
	require.Equal(t, "9000000000", bank.balance(ownerAddr, quoteDenom).String())
	require.Equal(t, "9900990099", bank.balance(ownerAddr, assetB).String())
	require.True(t, bank.balance(types.ModuleName, assetB).Equal(pool.RealReserveB))
	require.True(t, bank.balance(types.ModuleName, quoteDenom).Equal(pool.RealReserveA))

	_, err = k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 11)
	require.ErrorIs(t, err, types.ErrPoolAlreadyExists)

	_, err = k.Launch(ctx, "missing", ownerAddr, "DOGE", nil, 11)
	require.ErrorIs(t, err, types.ErrFactoryNotFound)
}

func TestLaunchRollsBackOnFailedTransfer(t *testing.T) {
	bank := newMockBank()
	k, ctx := setupKeeper(t, bank)
	createTestFactory(t, k, ctx, "pump", 0)

	devBuy := math.NewInt(1_000_000_000)
	_, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", &devBuy, 10)
	require.ErrorIs(t, err, sdkerrors.ErrInsufficientFunds)

	require.False(t, k.HasPool(ctx, types.PoolID(ownerAddr, quoteDenom, types.LaunchDenom("pump", ownerAddr, "DOGE"))))
	factory, _ := k.GetFactory(ctx, "pump")
	require.Equal(t, uint64(0), factory.LaunchCount)
}

func TestBuySellPersistAndEmit(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 0)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)

	ctx = ctx.WithEventManager(sdk.NewEventManager())
	buy, err := k.Buy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000_000_000), math.ZeroInt(), 100)
	require.NoError(t, err)
	require.Equal(t, uint16(100), buy.Result.FeeBps)

	stored, _ := k.GetPool(ctx, launch.PoolID)
	require.True(t, stored.RealReserveB.Equal(buy.Pool.RealReserveB))
	require.Equal(t, uint64(8_000_000), stored.AccruedRoyalties)

	events := ctx.EventManager().Events()
	require.NotEmpty(t, events)
	require.Equal(t, types.EventTypeBuy, events[len(events)-1].Type)

	sell, err := k.Sell(ctx, traderAddr, launch.PoolID, buy.Result.AmountOut, math.ZeroInt(), 100)
	require.NoError(t, err)
	require.True(t, sell.Result.AmountOut.LTE(math.NewInt(1_000_000_000)))
	require.NotEqual(t, buy.ID, sell.ID)

	stored, _ = k.GetPool(ctx, launch.PoolID)
	require.True(t, stored.RealReserveB.Equal(math.NewInt(1_000_000_000_000)))
}

func TestFailedSwapLeavesStore(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 0)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)

	_, err = k.Buy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000_000_000), math.NewInt(1_000_000_000_000), 100)
	require.ErrorIs(t, err, types.ErrInsufficientOutput)

	_, err = k.Buy(ctx, traderAddr, "nope", math.NewInt(1), math.ZeroInt(), 100)
	require.ErrorIs(t, err, types.ErrPoolNotFound)

	stored, _ := k.GetPool(ctx, launch.PoolID)
	require.True(t, stored.RealReserveA.IsZero())
	require.True(t, stored.RealReserveB.Equal(launch.Pool.RealReserveB))
}

func TestQuotesDoNotCommit(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 1)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)

	q, err := k.QuoteBuy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000_000_000), 0)
	require.NoError(t, err)
	require.True(t, q.Exempt)
	require.True(t, q.Net.Equal(q.Raw))

	// the exemption is still available after quoting
	stored, _ := k.GetPool(ctx, launch.PoolID)
	require.Equal(t, uint16(1), stored.FeeSchedule.FeeExemptBuys)

	_, err = k.QuoteSell(ctx, traderAddr, launch.PoolID, math.NewInt(1_000), 0)
	require.ErrorIs(t, err, types.ErrPoolEmpty)
}

func TestClaims(t *testing.T) {
	bank := newMockBank()
	bank.fund(traderAddr, sdk.NewCoins(sdk.NewInt64Coin(quoteDenom, 1_000_000_000)))
	k, ctx := setupKeeper(t, bank)
	createTestFactory(t, k, ctx, "pump", 0)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)

	_, err = k.Buy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000_000_000), math.ZeroInt(), 100)
	require.NoError(t, err)

	_, err = k.ClaimRoyalties(ctx, traderAddr, launch.PoolID, "")
	require.ErrorIs(t, err, types.ErrIllegalClaimant)
	_, err = k.ClaimProtocolFees(ctx, ownerAddr, launch.PoolID, "")
	require.ErrorIs(t, err, types.ErrIllegalClaimant)

	claim, err := k.ClaimRoyalties(ctx, ownerAddr, launch.PoolID, "")
	require.NoError(t, err)
	require.Equal(t, uint64(8_000_000), claim.Amount)
	require.Equal(t, "8000000", bank.balance(ownerAddr, quoteDenom).String())

	claim, err = k.ClaimProtocolFees(ctx, authorityAddr, launch.PoolID, traderAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000), claim.Amount)
	require.Equal(t, "2000000", bank.balance(traderAddr, quoteDenom).String())

	pool, _ := k.GetPool(ctx, launch.PoolID)
	require.Zero(t, pool.AccruedRoyalties)
	require.Zero(t, pool.AccruedProtocolFees)
	require.True(t, bank.balance(types.ModuleName, quoteDenom).Equal(pool.RealReserveA))
}

func TestSetPoolEnabled(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 0)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)

	_, err = k.SetPoolEnabled(ctx, traderAddr, launch.PoolID, false, 1)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	pool, err := k.SetPoolEnabled(ctx, ownerAddr, launch.PoolID, false, 1)
	require.NoError(t, err)
	require.False(t, pool.Enabled)

	_, err = k.Buy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000), math.ZeroInt(), 2)
	require.ErrorIs(t, err, types.ErrPoolDisabled)

	_, err = k.ClaimRoyalties(ctx, ownerAddr, launch.PoolID, "")
	require.NoError(t, err)
}

func TestCreatePool(t *testing.T) {
	bank := newMockBank()
	bank.fund(ownerAddr, sdk.NewCoins(sdk.NewInt64Coin(quoteDenom, 500), sdk.NewInt64Coin("uproj", 1_000_000)))
	k, ctx := setupKeeper(t, bank)

	pool, err := k.CreatePool(ctx, ownerAddr, quoteDenom, "uproj",
		math.NewInt(1_000), math.NewInt(500), math.NewInt(1_000_000), testFees(0), 5)
	require.NoError(t, err)
	require.Empty(t, pool.FactoryID)
	require.Equal(t, "500", bank.balance(types.ModuleName, quoteDenom).String())
	require.Equal(t, "1000000", bank.balance(types.ModuleName, "uproj").String())

	_, err = k.CreatePool(ctx, ownerAddr, quoteDenom, "uproj",
		math.NewInt(1_000), math.ZeroInt(), math.NewInt(1), testFees(0), 5)
	require.ErrorIs(t, err, types.ErrPoolAlreadyExists)

	_, err = k.CreatePool(ctx, traderAddr, quoteDenom, "uproj",
		math.NewInt(1_000), math.ZeroInt(), math.NewInt(1_000), types.FeeSchedule{Decay: 1}, 5)
	require.ErrorIs(t, err, types.ErrInvalidFeeSchedule)

	require.Len(t, k.GetPoolsByOwner(ctx, ownerAddr), 1)
	require.Empty(t, k.GetPoolsByOwner(ctx, traderAddr))
}

func TestGenesisRoundTrip(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 0)
	launch, err := k.Launch(ctx, "pump", ownerAddr, "DOGE", nil, 0)
	require.NoError(t, err)
	_, err = k.Buy(ctx, traderAddr, launch.PoolID, math.NewInt(1_000_000), math.ZeroInt(), 500)
	require.NoError(t, err)

	exported := k.ExportGenesis(ctx)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Pools, 1)
	require.Len(t, exported.Factories, 1)

	k2, ctx2 := setupKeeper(t, nil)
	require.NoError(t, k2.InitGenesis(ctx2, *exported))
	reexported := k2.ExportGenesis(ctx2)
	require.Equal(t, exported.Params, reexported.Params)
	require.Equal(t, exported.Pools[0].ID(), reexported.Pools[0].ID())
	require.True(t, exported.Pools[0].RealReserveA.Equal(reexported.Pools[0].RealReserveA))
	require.Equal(t, exported.Pools[0].AccruedRoyalties, reexported.Pools[0].AccruedRoyalties)
}

func TestConcurrentSwapsSerializePerPool(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	createTestFactory(t, k, ctx, "pump", 0)

	var poolIDs []string
	for _, sym := range []string{"AAA", "BBB"} {
		launch, err := k.Launch(ctx, "pump", ownerAddr, sym, nil, 0)
		require.NoError(t, err)
		poolIDs = append(poolIDs, launch.PoolID)
	}

	const workers, swapsPerWorker = 8, 25
	amount := math.NewInt(1_000_000)

	var wg sync.WaitGroup
	errs := make(chan error, workers*len(poolIDs))
	for _, poolID := range poolIDs {
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(poolID string) {
				defer wg.Done()
				wctx := ctx.
					WithEventManager(sdk.NewEventManager()).
					WithGasMeter(storetypes.NewInfiniteGasMeter())
				for i := 0; i < swapsPerWorker; i++ {
					if _, err := k.Buy(wctx, traderAddr, poolID, amount, math.ZeroInt(), 1_000); err != nil {
						errs <- fmt.Errorf("%s: %w", poolID, err)
						return
					}
				}
			}(poolID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// every input landed in the A reserve, none was lost to a racing write
	want := amount.MulRaw(workers * swapsPerWorker)
	for _, poolID := range poolIDs {
		pool, _ := k.GetPool(ctx, poolID)
		require.True(t, pool.RealReserveA.Equal(want), "pool %s: %s != %s", poolID, pool.RealReserveA, want)
	}
}

func TestPoolIDsDoNotCollide(t *testing.T) {
	k, ctx := setupKeeper(t, nil)

	pairs := [][2]string{
		{"ibc/xyz", "abc"},
		{"ibc", "xyz/abc"},
	}
	seen := make(map[string]bool)
	for _, pair := range pairs {
		pool, err := k.CreatePool(ctx, ownerAddr, pair[0], pair[1],
			math.NewInt(1_000), math.ZeroInt(), math.NewInt(1_000_000), testFees(0), 1)
		require.NoError(t, err, "%s/%s", pair[0], pair[1])
		require.False(t, seen[pool.ID()], "duplicate pool id %s", pool.ID())
		seen[pool.ID()] = true

		stored, found := k.GetPool(ctx, pool.ID())
		require.True(t, found)
		require.Equal(t, pair[0], stored.AssetA)
		require.Equal(t, pair[1], stored.AssetB)
	}
	require.Len(t, k.GetPoolsByOwner(ctx, ownerAddr), 2)

	_, err := k.CreatePool(ctx, ownerAddr, "ibc|xyz", "abc",
		math.NewInt(1_000), math.ZeroInt(), math.NewInt(1_000_000), testFees(0), 1)
	require.ErrorIs(t, err, types.ErrInvalidDenom)
}

func TestConcurrentFactoryWrites(t *testing.T) {
	k, ctx := setupKeeper(t, nil)
	f, err := types.NewFactory("pump", ownerAddr, quoteDenom,
		math.NewInt(100_000_000_000), math.NewInt(1_000_000_000_000), testFees(0), 6, false)
	require.NoError(t, err)

	const workers = 16
	wctx := func() sdk.Context {
		return ctx.WithEventManager(sdk.NewEventManager()).WithGasMeter(storetypes.NewInfiniteGasMeter())
	}

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- k.CreateFactory(wctx(), f)
		}()
	}
	wg.Wait()
	close(results)
	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, types.ErrFactoryExists)
	}
	require.Equal(t, 1, created)

	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if _, err := k.Launch(wctx(), "pump", ownerAddr, symbol, nil, 1); err != nil {
				errs <- fmt.Errorf("%s: %w", symbol, err)
			}
		}(fmt.Sprintf("TKN%d", w))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// no increment was lost to a racing read-modify-write
	factory, found := k.GetFactory(ctx, "pump")
	require.True(t, found)
	require.Equal(t, uint64(workers), factory.LaunchCount)
	require.Len(t, k.GetPoolsByOwner(ctx, ownerAddr), workers)
}
