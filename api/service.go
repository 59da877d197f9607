package api

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/api/types"
	"github.com/openalpha/launchpad/api/websocket"
	"github.com/openalpha/launchpad/metrics"
	"github.com/openalpha/launchpad/x/launchpad/keeper"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

// Storage backends
const (
	BackendMemory  = string(dbm.MemDBBackend)
	BackendLevelDB = string(dbm.GoLevelDBBackend)
)

const (
	defaultPageSize = 100
	maxPageSize     = 1_000
	chainID         = "launchpad-standalone"
)

var _ types.LaunchpadService = (*Service)(nil)

// Publisher receives committed state changes for live streaming
type Publisher interface {
	BroadcastSwap(*websocket.SwapMessage)
	BroadcastLaunch(*websocket.LaunchMessage)
	BroadcastPool(*websocket.PoolMessage)
	BroadcastClaim(*websocket.ClaimMessage)
}

// ServiceConfig configures the standalone service
type ServiceConfig struct {
	Backend     string
	DataDir     string
	Authority   string // protocol fee authority written to params on start
	HistorySize int    // swaps retained per pool
}

// DefaultServiceConfig returns an in-memory configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Backend:     BackendMemory,
		HistorySize: 500,
	}
}

// Service runs the launchpad keeper over its own commit multistore. The
// tick is the next block height: every Commit seals one block.
//
// Operations share mu for reading and run concurrently against the working
// cache store; the keeper serializes per pool. Commit takes mu exclusively.
type Service struct {
	config  ServiceConfig
	db      dbm.DB
	cms     storetypes.CommitMultiStore
	keeper  *keeper.Keeper
	msgs    *keeper.MsgServer
	queries *keeper.QueryServer
	logger  log.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	working storetypes.CacheMultiStore
	closed  bool
	tick    atomic.Uint64
	seq     atomic.Uint64

	leaderboard *Leaderboard
	history     *History
	publisher   Publisher
}

// NewService opens the store and loads the latest committed state
func NewService(cfg ServiceConfig, logger log.Logger, collector *metrics.Collector) (*Service, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultServiceConfig().HistorySize
	}

	db, err := dbm.NewDB(lptypes.ModuleName, dbm.BackendType(cfg.Backend), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}

	storeKey := storetypes.NewKVStoreKey(lptypes.StoreKey)
	cms := store.NewCommitMultiStore(db, logger, storemetrics.NewNoOpMetrics())
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	k := keeper.NewKeeper(cdc, storeKey, nil, cfg.Authority, logger)
	if collector != nil {
		k.SetMetrics(collector)
	}

	s := &Service{
		config:      cfg,
		db:          db,
		cms:         cms,
		keeper:      k,
		msgs:        keeper.NewMsgServerImpl(k),
		queries:     keeper.NewQueryServerImpl(k),
		logger:      logger.With("component", "service"),
		metrics:     collector,
		working:     cms.CacheMultiStore(),
		leaderboard: NewLeaderboard(),
		history:     NewHistory(cfg.HistorySize),
	}
	s.tick.Store(uint64(cms.LastCommitID().Version) + 1)

	if err := s.bootstrap(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap writes genesis on a fresh store and rebuilds the in-memory indexes
func (s *Service) bootstrap() error {
	ctx, _ := s.context()
	if s.cms.LastCommitID().Version == 0 {
		gs := lptypes.DefaultGenesis()
		gs.Params.ProtocolFeeAuthority = s.config.Authority
		if err := s.keeper.InitGenesis(ctx, *gs); err != nil {
			return fmt.Errorf("failed to init genesis: %w", err)
		}
	} else if s.config.Authority != "" {
		params := s.keeper.GetParams(ctx)
		params.ProtocolFeeAuthority = s.config.Authority
		if err := s.keeper.SetParams(ctx, params); err != nil {
			return err
		}
	}

	pools := s.keeper.GetAllPools(ctx)
	for _, pool := range pools {
		s.leaderboard.Update(pool)
	}
	if s.metrics != nil {
		s.metrics.SetPoolCount(len(pools))
		s.metrics.SetTick(s.tick.Load())
	}
	s.logger.Info("Service ready",
		"backend", s.config.Backend,
		"version", s.cms.LastCommitID().Version,
		"pools", len(pools),
	)
	return nil
}

// SetPublisher attaches a live stream for committed changes
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Keeper returns the underlying keeper
func (s *Service) Keeper() *keeper.Keeper {
	return s.keeper
}

// Tick returns the tick new operations execute at
func (s *Service) Tick() uint64 {
	return s.tick.Load()
}

// context builds a fresh sdk.Context over the working store. Callers hold mu.
func (s *Service) context() (sdk.Context, uint64) {
	tick := s.tick.Load()
	header := cmtproto.Header{
		ChainID: chainID,
		Height:  int64(tick),
		Time:    time.Now().UTC(),
	}
	return sdk.NewContext(s.working, header, false, s.logger), tick
}

// Commit seals the working state as a new version and advances the tick
func (s *Service) Commit() storetypes.CommitID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Service) commitLocked() storetypes.CommitID {
	if s.closed {
		return s.cms.LastCommitID()
	}
	s.working.Write()
	id := s.cms.Commit()
	s.working = s.cms.CacheMultiStore()
	s.tick.Store(uint64(id.Version) + 1)

	if s.metrics != nil {
		s.metrics.SetTick(s.tick.Load())
	}
	return id
}

// Run commits every interval until ctx is done
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Commit()
		case <-ctx.Done():
			return
		}
	}
}

// Close commits pending state and closes the database
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	id := s.commitLocked()
	s.closed = true
	s.logger.Info("Service closed", "version", id.Version)
	return s.db.Close()
}

// ============ Writes ============

// CreateFactory registers a launch template
func (s *Service) CreateFactory(_ context.Context, msg *lptypes.MsgCreateFactory) (*lptypes.MsgCreateFactoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, _ := s.context()
	return s.msgs.CreateFactory(ctx, msg)
}

// Launch creates a pool from a factory
func (s *Service) Launch(_ context.Context, msg *lptypes.MsgLaunch) (*lptypes.MsgLaunchResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.Launch(ctx, msg)
	if err != nil {
		return nil, err
	}

	if resp.DevBuyOut != "" {
		s.recordSwap(types.SwapRecord{
			PoolID:    resp.PoolID,
			Trader:    msg.Creator,
			Side:      lptypes.SideBuy,
			AmountIn:  msg.DevBuyAmount,
			AmountOut: resp.DevBuyOut,
			Tick:      tick,
		})
	}
	if s.publisher != nil {
		s.publisher.BroadcastLaunch(&websocket.LaunchMessage{
			PoolID:    resp.PoolID,
			FactoryID: msg.FactoryID,
			Owner:     msg.Creator,
			AssetB:    resp.AssetB,
			Tick:      tick,
		})
	}
	s.poolChanged(ctx, resp.PoolID, tick)
	return resp, nil
}

// CreatePool creates a pool without a factory
func (s *Service) CreatePool(_ context.Context, msg *lptypes.MsgCreatePool) (*lptypes.MsgCreatePoolResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.CreatePool(ctx, msg)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.BroadcastLaunch(&websocket.LaunchMessage{
			PoolID: resp.PoolID,
			Owner:  msg.Creator,
			AssetB: msg.AssetB,
			Tick:   tick,
		})
	}
	s.poolChanged(ctx, resp.PoolID, tick)
	return resp, nil
}

// Buy swaps asset A for asset B
func (s *Service) Buy(_ context.Context, msg *lptypes.MsgBuy) (*lptypes.MsgSwapResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.Buy(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.swapped(ctx, lptypes.SideBuy, msg.Trader, msg.PoolID, msg.AmountAIn, resp, tick)
	return resp, nil
}

// Sell swaps asset B for asset A
func (s *Service) Sell(_ context.Context, msg *lptypes.MsgSell) (*lptypes.MsgSwapResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.Sell(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.swapped(ctx, lptypes.SideSell, msg.Trader, msg.PoolID, msg.AmountBIn, resp, tick)
	return resp, nil
}

// ClaimRoyalties pays out the accrued royalties of a pool
func (s *Service) ClaimRoyalties(_ context.Context, msg *lptypes.MsgClaimRoyalties) (*lptypes.MsgClaimResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.ClaimRoyalties(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.claimed(ctx, msg.PoolID, keeper.ClaimKindRoyalties, resp, tick)
	return resp, nil
}

// ClaimProtocolFees pays out the accrued protocol fees of a pool
func (s *Service) ClaimProtocolFees(_ context.Context, msg *lptypes.MsgClaimProtocolFees) (*lptypes.MsgClaimResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.ClaimProtocolFees(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.claimed(ctx, msg.PoolID, keeper.ClaimKindProtocolFees, resp, tick)
	return resp, nil
}

// SetPoolEnabled toggles swaps on a pool
func (s *Service) SetPoolEnabled(_ context.Context, msg *lptypes.MsgSetPoolEnabled) (*lptypes.MsgSetPoolEnabledResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	resp, err := s.msgs.SetPoolEnabled(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.poolChanged(ctx, msg.PoolID, tick)
	return resp, nil
}

func (s *Service) swapped(ctx sdk.Context, side, trader, poolID, amountIn string, resp *lptypes.MsgSwapResponse, tick uint64) {
	record := types.SwapRecord{
		ReceiptID:   resp.ReceiptID,
		PoolID:      poolID,
		Trader:      trader,
		Side:        side,
		AmountIn:    amountIn,
		AmountOut:   resp.AmountOut,
		FeeBps:      resp.FeeBps,
		RoyaltyFee:  resp.RoyaltyFee,
		ProtocolFee: resp.ProtocolFee,
		Exempt:      resp.Exempt,
		Tick:        tick,
	}
	s.recordSwap(record)
	if s.publisher != nil {
		s.publisher.BroadcastSwap(&websocket.SwapMessage{
			ReceiptID:   record.ReceiptID,
			PoolID:      record.PoolID,
			Trader:      record.Trader,
			Side:        record.Side,
			AmountIn:    record.AmountIn,
			AmountOut:   record.AmountOut,
			FeeBps:      record.FeeBps,
			RoyaltyFee:  record.RoyaltyFee,
			ProtocolFee: record.ProtocolFee,
			Exempt:      record.Exempt,
			Tick:        record.Tick,
		})
	}
	s.poolChanged(ctx, poolID, tick)
}

func (s *Service) recordSwap(record types.SwapRecord) {
	record.Seq = s.seq.Add(1)
	s.history.Add(record.Seq, record)
}

func (s *Service) claimed(ctx sdk.Context, poolID, kind string, resp *lptypes.MsgClaimResponse, tick uint64) {
	if s.publisher != nil {
		s.publisher.BroadcastClaim(&websocket.ClaimMessage{
			PoolID:   poolID,
			Kind:     kind,
			Receiver: resp.Receiver,
			Denom:    resp.Denom,
			Amount:   resp.Amount,
		})
	}
	s.poolChanged(ctx, poolID, tick)
}

// poolChanged refreshes the indexes and streams the new pool state
func (s *Service) poolChanged(ctx sdk.Context, poolID string, tick uint64) {
	pool, found := s.keeper.GetPool(ctx, poolID)
	if !found {
		return
	}
	s.leaderboard.Update(pool)
	if s.metrics != nil {
		s.metrics.SetPoolCount(s.leaderboard.Len())
	}
	if s.publisher != nil {
		s.publisher.BroadcastPool(&websocket.PoolMessage{
			PoolID:       poolID,
			RealReserveA: pool.RealReserveA.String(),
			RealReserveB: pool.RealReserveB.String(),
			SpotPrice:    pool.SpotPrice().String(),
			Enabled:      pool.Enabled,
			Tick:         tick,
		})
	}
}

// ============ Reads ============

// GetPool returns a pool and its derived state
func (s *Service) GetPool(_ context.Context, poolID string) (*types.PoolView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	pool, err := s.queries.Pool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	view := newPoolView(pool, tick)
	return &view, nil
}

// ListPools returns a page of pools, optionally filtered by owner
func (s *Service) ListPools(_ context.Context, owner string, offset, limit uint64) (*types.ListPoolsResponse, error) {
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	pools, total, err := s.queries.Pools(ctx, owner, offset, limit)
	if err != nil {
		return nil, err
	}
	views := make([]types.PoolView, 0, len(pools))
	for _, pool := range pools {
		views = append(views, newPoolView(pool, tick))
	}
	return &types.ListPoolsResponse{Pools: views, Total: total}, nil
}

// GetFactory returns a factory by id
func (s *Service) GetFactory(_ context.Context, factoryID string) (*lptypes.Factory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, _ := s.context()
	factory, err := s.queries.Factory(ctx, factoryID)
	if err != nil {
		return nil, err
	}
	return &factory, nil
}

// ListFactories returns every factory
func (s *Service) ListFactories(_ context.Context) ([]lptypes.Factory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, _ := s.context()
	factories, err := s.queries.Factories(ctx)
	if err != nil {
		return nil, err
	}
	if factories == nil {
		factories = []lptypes.Factory{}
	}
	return factories, nil
}

// Quote returns the net result of a swap at the current tick without executing it
func (s *Service) Quote(_ context.Context, poolID, side, caller string, amountIn math.Int) (*types.QuoteResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	q, err := s.queries.Quote(ctx, poolID, side, caller, amountIn, tick)
	if err != nil {
		return nil, err
	}
	return &types.QuoteResponse{
		PoolID:   poolID,
		Side:     side,
		AmountIn: amountIn.String(),
		Raw:      q.Raw.String(),
		Fee:      q.Fee.String(),
		Net:      q.Net.String(),
		FeeBps:   q.FeeBps,
		Exempt:   q.Exempt,
		Tick:     tick,
	}, nil
}

// Leaderboard returns pools ranked by spot price
func (s *Service) Leaderboard(_ context.Context, limit int) ([]types.RankEntry, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return s.leaderboard.Top(limit), nil
}

// History returns the most recent swaps of a pool
func (s *Service) History(_ context.Context, poolID string, limit int) ([]types.SwapRecord, error) {
	if limit <= 0 || limit > s.config.HistorySize {
		limit = s.config.HistorySize
	}
	return s.history.Recent(poolID, limit), nil
}

// Status describes the service state
func (s *Service) Status(_ context.Context) *types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, tick := s.context()
	return &types.Status{
		Tick:      tick,
		Version:   s.cms.LastCommitID().Version,
		Pools:     s.leaderboard.Len(),
		Backend:   s.config.Backend,
		Authority: s.keeper.GetParams(ctx).ProtocolFeeAuthority,
	}
}

func newPoolView(pool lptypes.Pool, tick uint64) types.PoolView {
	return types.PoolView{
		PoolID:        pool.ID(),
		SpotPrice:     pool.SpotPrice().String(),
		CurrentFeeBps: pool.FeeSchedule.FeeBps(tick),
		Tick:          tick,
		Pool:          pool,
	}
}
