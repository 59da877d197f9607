package launchpad

import (
	"encoding/json"
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
	"github.com/stretchr/testify/require"

	"github.com/openalpha/launchpad/x/launchpad/keeper"
	"github.com/openalpha/launchpad/x/launchpad/types"
)

func setupModule(t *testing.T) (AppModule, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore.CacheMultiStore(), cmtproto.Header{Height: 1}, false, log.NewNopLogger())
	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	k := keeper.NewKeeper(cdc, storeKey, nil, "", log.NewNopLogger())
	return NewAppModule(k), ctx
}

func TestDefaultGenesisValidates(t *testing.T) {
	basic := AppModuleBasic{}
	bz := basic.DefaultGenesis(nil)
	require.NoError(t, basic.ValidateGenesis(nil, nil, bz))
	require.NoError(t, basic.ValidateGenesis(nil, nil, nil))

	err := basic.ValidateGenesis(nil, nil, json.RawMessage(`{"pools":`))
	require.ErrorIs(t, err, types.ErrInvalidGenesisState)
}

func TestGenesisImportExport(t *testing.T) {
	am, ctx := setupModule(t)
	owner := sdk.AccAddress([]byte("owner_______________")).String()

	fees := types.FeeSchedule{NormalizationPeriod: 100, Decay: 5, RoyaltiesBps: 100}
	factory, err := types.NewFactory("pump", owner, "uatom",
		math.NewInt(100_000_000_000), math.NewInt(1_000_000_000_000), fees, 6, false)
	require.NoError(t, err)
	pool, _, err := factory.Launch(owner, types.LaunchDenom("pump", owner, "DOGE"), nil, owner, 1)
	require.NoError(t, err)

	gs := types.DefaultGenesis()
	gs.Factories = append(gs.Factories, factory)
	gs.Pools = append(gs.Pools, pool)
	bz, err := json.Marshal(gs)
	require.NoError(t, err)

	am.InitGenesis(ctx, nil, bz)

	var exported types.GenesisState
	require.NoError(t, json.Unmarshal(am.ExportGenesis(ctx, nil), &exported))
	require.Len(t, exported.Factories, 1)
	require.Len(t, exported.Pools, 1)
	require.Equal(t, pool.ID(), exported.Pools[0].ID())
	require.True(t, pool.RealReserveB.Equal(exported.Pools[0].RealReserveB))
}

func TestInitGenesisPanicsOnInvalidState(t *testing.T) {
	am, ctx := setupModule(t)
	require.Panics(t, func() {
		am.InitGenesis(ctx, nil, json.RawMessage(`{"params":{"protocol_fee_authority":"nope"}}`))
	})
}
