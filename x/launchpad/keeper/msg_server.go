package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the launchpad MsgServer. Block height is the tick.
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func tickOf(ctx sdk.Context) uint64 {
	if h := ctx.BlockHeight(); h > 0 {
		return uint64(h)
	}
	return 0
}

// CreateFactory handles MsgCreateFactory
func (m *MsgServer) CreateFactory(ctx context.Context, msg *types.MsgCreateFactory) (*types.MsgCreateFactoryResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	shift, err := types.ParseAmount(msg.Shift)
	if err != nil {
		return nil, err
	}
	reserveB, err := types.ParseAmount(msg.InitialRealReserveB)
	if err != nil {
		return nil, err
	}
	factory, err := types.NewFactory(msg.FactoryID, msg.Creator, msg.QuoteAsset, shift, reserveB, msg.FeeTemplate, msg.Decimals, msg.MetadataMutable)
	if err != nil {
		return nil, err
	}
	if err := m.keeper.CreateFactory(sdk.UnwrapSDKContext(ctx), factory); err != nil {
		return nil, err
	}
	return &types.MsgCreateFactoryResponse{FactoryID: factory.ID}, nil
}

// Launch handles MsgLaunch
func (m *MsgServer) Launch(ctx context.Context, msg *types.MsgLaunch) (*types.MsgLaunchResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	devBuy, err := msg.DevBuy()
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Launch(sdkCtx, msg.FactoryID, msg.Creator, msg.Symbol, devBuy, tickOf(sdkCtx))
	if err != nil {
		return nil, err
	}

	resp := &types.MsgLaunchResponse{
		PoolID: receipt.PoolID,
		AssetB: receipt.Pool.AssetB,
	}
	if devBuy != nil {
		resp.DevBuyOut = receipt.Result.AmountOut.String()
	}
	return resp, nil
}

// CreatePool handles MsgCreatePool
func (m *MsgServer) CreatePool(ctx context.Context, msg *types.MsgCreatePool) (*types.MsgCreatePoolResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	shift, err := types.ParseAmount(msg.Shift)
	if err != nil {
		return nil, err
	}
	reserveA, err := types.ParseOptionalAmount(msg.InitialReserveA)
	if err != nil {
		return nil, err
	}
	reserveB, err := types.ParseAmount(msg.InitialReserveB)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.CreatePool(sdkCtx, msg.Creator, msg.AssetA, msg.AssetB, shift, reserveA, reserveB, msg.FeeSchedule, tickOf(sdkCtx))
	if err != nil {
		return nil, err
	}
	return &types.MsgCreatePoolResponse{PoolID: pool.ID()}, nil
}

// Buy handles MsgBuy
func (m *MsgServer) Buy(ctx context.Context, msg *types.MsgBuy) (*types.MsgSwapResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	in, minOut, err := msg.Amounts()
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Buy(sdkCtx, msg.Trader, msg.PoolID, in, minOut, tickOf(sdkCtx))
	if err != nil {
		return nil, err
	}
	return swapResponse(receipt), nil
}

// Sell handles MsgSell
func (m *MsgServer) Sell(ctx context.Context, msg *types.MsgSell) (*types.MsgSwapResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	in, minOut, err := msg.Amounts()
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	receipt, err := m.keeper.Sell(sdkCtx, msg.Trader, msg.PoolID, in, minOut, tickOf(sdkCtx))
	if err != nil {
		return nil, err
	}
	return swapResponse(receipt), nil
}

// ClaimRoyalties handles MsgClaimRoyalties
func (m *MsgServer) ClaimRoyalties(ctx context.Context, msg *types.MsgClaimRoyalties) (*types.MsgClaimResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	claim, err := m.keeper.ClaimRoyalties(sdk.UnwrapSDKContext(ctx), msg.Claimant, msg.PoolID, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return claimResponse(claim), nil
}

// ClaimProtocolFees handles MsgClaimProtocolFees
func (m *MsgServer) ClaimProtocolFees(ctx context.Context, msg *types.MsgClaimProtocolFees) (*types.MsgClaimResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	claim, err := m.keeper.ClaimProtocolFees(sdk.UnwrapSDKContext(ctx), msg.Claimant, msg.PoolID, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return claimResponse(claim), nil
}

// SetPoolEnabled handles MsgSetPoolEnabled
func (m *MsgServer) SetPoolEnabled(ctx context.Context, msg *types.MsgSetPoolEnabled) (*types.MsgSetPoolEnabledResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.SetPoolEnabled(sdkCtx, msg.Owner, msg.PoolID, msg.Enabled, tickOf(sdkCtx))
	if err != nil {
		return nil, err
	}
	return &types.MsgSetPoolEnabledResponse{Enabled: pool.Enabled}, nil
}

func swapResponse(r Receipt) *types.MsgSwapResponse {
	return &types.MsgSwapResponse{
		ReceiptID:   r.ID,
		AmountOut:   r.Result.AmountOut.String(),
		FeeBps:      r.Result.FeeBps,
		RoyaltyFee:  r.Result.RoyaltyFee,
		ProtocolFee: r.Result.ProtocolFee,
		Exempt:      r.Result.Exempt,
	}
}

func claimResponse(c types.Claim) *types.MsgClaimResponse {
	return &types.MsgClaimResponse{
		Receiver: c.Receiver,
		Denom:    c.Denom,
		Amount:   c.Amount,
	}
}
