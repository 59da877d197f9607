package types

import (
	"context"

	"cosmossdk.io/math"

	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

// PoolView is a pool together with its derived state at the current tick
type PoolView struct {
	PoolID        string       `json:"pool_id"`
	SpotPrice     string       `json:"spot_price"`
	CurrentFeeBps uint16       `json:"current_fee_bps"`
	Tick          uint64       `json:"tick"`
	Pool          lptypes.Pool `json:"pool"`
}

// ListPoolsResponse is a page of pools
type ListPoolsResponse struct {
	Pools []PoolView `json:"pools"`
	Total uint64     `json:"total"`
}

// QuoteResponse is a read-only swap quote
type QuoteResponse struct {
	PoolID   string `json:"pool_id"`
	Side     string `json:"side"`
	AmountIn string `json:"amount_in"`
	Raw      string `json:"raw_out"`
	Fee      string `json:"fee"`
	Net      string `json:"net_out"`
	FeeBps   uint16 `json:"fee_bps"`
	Exempt   bool   `json:"exempt"`
	Tick     uint64 `json:"tick"`
}

// RankEntry is one leaderboard row
type RankEntry struct {
	Rank      int    `json:"rank"`
	PoolID    string `json:"pool_id"`
	SpotPrice string `json:"spot_price"`
}

// SwapRecord is a committed swap as served by the history endpoint
type SwapRecord struct {
	Seq         uint64 `json:"seq"`
	ReceiptID   string `json:"receipt_id"`
	PoolID      string `json:"pool_id"`
	Trader      string `json:"trader"`
	Side        string `json:"side"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	FeeBps      uint16 `json:"fee_bps"`
	RoyaltyFee  uint64 `json:"royalty_fee"`
	ProtocolFee uint64 `json:"protocol_fee"`
	Exempt      bool   `json:"exempt"`
	Tick        uint64 `json:"tick"`
}

// Status describes the service state
type Status struct {
	Tick      uint64 `json:"tick"`
	Version   int64  `json:"version"`
	Pools     int    `json:"pools"`
	Backend   string `json:"backend"`
	Authority string `json:"protocol_fee_authority,omitempty"`
}

// LaunchpadService is the state machine behind the HTTP handlers. Writes
// take launchpad messages, so the HTTP body of a write is the message JSON.
type LaunchpadService interface {
	CreateFactory(ctx context.Context, msg *lptypes.MsgCreateFactory) (*lptypes.MsgCreateFactoryResponse, error)
	Launch(ctx context.Context, msg *lptypes.MsgLaunch) (*lptypes.MsgLaunchResponse, error)
	CreatePool(ctx context.Context, msg *lptypes.MsgCreatePool) (*lptypes.MsgCreatePoolResponse, error)
	Buy(ctx context.Context, msg *lptypes.MsgBuy) (*lptypes.MsgSwapResponse, error)
	Sell(ctx context.Context, msg *lptypes.MsgSell) (*lptypes.MsgSwapResponse, error)
	ClaimRoyalties(ctx context.Context, msg *lptypes.MsgClaimRoyalties) (*lptypes.MsgClaimResponse, error)
	ClaimProtocolFees(ctx context.Context, msg *lptypes.MsgClaimProtocolFees) (*lptypes.MsgClaimResponse, error)
	SetPoolEnabled(ctx context.Context, msg *lptypes.MsgSetPoolEnabled) (*lptypes.MsgSetPoolEnabledResponse, error)

	GetPool(ctx context.Context, poolID string) (*PoolView, error)
	ListPools(ctx context.Context, owner string, offset, limit uint64) (*ListPoolsResponse, error)
	GetFactory(ctx context.Context, factoryID string) (*lptypes.Factory, error)
	ListFactories(ctx context.Context) ([]lptypes.Factory, error)
	Quote(ctx context.Context, poolID, side, caller string, amountIn math.Int) (*QuoteResponse, error)
	Leaderboard(ctx context.Context, limit int) ([]RankEntry, error)
	History(ctx context.Context, poolID string, limit int) ([]SwapRecord, error)
	Status(ctx context.Context) *Status
}
