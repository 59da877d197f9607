package keeper

import (
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/launchpad/metrics"
	"github.com/openalpha/launchpad/x/launchpad/types"
)

// receiptNamespace seeds deterministic swap receipt ids
var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(types.ModuleName))

// Receipt is a committed swap together with the updated pool
type Receipt struct {
	ID     string           `json:"id"`
	PoolID string           `json:"pool_id"`
	Trader string           `json:"trader"`
	Tick   uint64           `json:"tick"`
	Result types.SwapResult `json:"result"`
	Pool   types.Pool       `json:"pool"`
}

// receiptID derives a stable id from the swap so that every node agrees on it
func receiptID(poolID string, tick uint64, res types.SwapResult) string {
	seed := fmt.Sprintf("%s|%d|%s|%s|%s", poolID, tick, res.Side, res.KBefore, res.KAfter)
	return uuid.NewSHA1(receiptNamespace, []byte(seed)).String()
}

// Buy swaps amountAIn of the pool's asset A for asset B
func (k *Keeper) Buy(ctx sdk.Context, trader, poolID string, amountAIn, minAmountBOut math.Int, tick uint64) (Receipt, error) {
	return k.swap(ctx, types.SideBuy, trader, poolID, amountAIn, minAmountBOut, tick)
}

// Sell swaps amountBIn of the pool's asset B for asset A
func (k *Keeper) Sell(ctx sdk.Context, trader, poolID string, amountBIn, minAmountAOut math.Int, tick uint64) (Receipt, error) {
	return k.swap(ctx, types.SideSell, trader, poolID, amountBIn, minAmountAOut, tick)
}

func (k *Keeper) swap(ctx sdk.Context, side, trader, poolID string, amountIn, minOut math.Int, tick uint64) (Receipt, error) {
	timer := metrics.NewTimer()
	unlock := k.lockPool(poolID)
	defer unlock()

	receipt, err := k.executeSwap(ctx, side, trader, poolID, amountIn, minOut, tick)
	if k.metrics != nil {
		if err != nil {
			k.metrics.RecordSwapError(side, errorReason(err))
		} else {
			res := receipt.Result
			k.metrics.RecordSwap(poolID, side, res.AmountIn, res.FeeBps, res.Exempt, res.RoyaltyFee, res.ProtocolFee)
			k.metrics.RecordSwapLatency(side, timer.ElapsedMs())
		}
	}
	return receipt, err
}

func (k *Keeper) executeSwap(ctx sdk.Context, side, trader, poolID string, amountIn, minOut math.Int, tick uint64) (Receipt, error) {
	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return Receipt{}, err
	}

	var (
		next     types.Pool
		res      types.SwapResult
		inDenom  string
		outDenom string
	)
	if side == types.SideBuy {
		next, res, err = pool.Buy(amountIn, minOut, trader, tick)
		inDenom, outDenom = pool.AssetA, pool.AssetB
	} else {
		next, res, err = pool.Sell(amountIn, minOut, trader, tick)
		inDenom, outDenom = pool.AssetB, pool.AssetA
	}
	if err != nil {
		return Receipt{}, err
	}

	cacheCtx, write := ctx.CacheContext()
	if err := k.collect(cacheCtx, trader, inDenom, res.AmountIn); err != nil {
		return Receipt{}, err
	}
	if err := k.pay(cacheCtx, trader, outDenom, res.AmountOut); err != nil {
		return Receipt{}, err
	}
	if err := k.SetPool(cacheCtx, next); err != nil {
		return Receipt{}, err
	}
	write()

	eventType := types.EventTypeBuy
	if side == types.SideSell {
		eventType = types.EventTypeSell
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyTrader, trader),
			sdk.NewAttribute(types.AttributeKeyAmountIn, res.AmountIn.String()),
			sdk.NewAttribute(types.AttributeKeyAmountOut, res.AmountOut.String()),
			sdk.NewAttribute(types.AttributeKeyFeeBps, strconv.FormatUint(uint64(res.FeeBps), 10)),
			sdk.NewAttribute(types.AttributeKeyRoyaltyFee, strconv.FormatUint(res.RoyaltyFee, 10)),
			sdk.NewAttribute(types.AttributeKeyProtocolFee, strconv.FormatUint(res.ProtocolFee, 10)),
			sdk.NewAttribute(types.AttributeKeyTick, strconv.FormatUint(tick, 10)),
		),
	)

	k.logger.Info("Swap executed",
		"side", side,
		"pool_id", poolID,
		"trader", trader,
		"amount_in", res.AmountIn.String(),
		"amount_out", res.AmountOut.String(),
		"fee_bps", res.FeeBps,
	)
	k.recordPool(next)

	return Receipt{
		ID:     receiptID(poolID, tick, res),
		PoolID: poolID,
		Trader: trader,
		Tick:   tick,
		Result: res,
		Pool:   next,
	}, nil
}

// QuoteBuy returns the net outcome of a buy without committing it
func (k *Keeper) QuoteBuy(ctx sdk.Context, caller, poolID string, amountAIn math.Int, tick uint64) (types.SwapQuote, error) {
	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return types.SwapQuote{}, err
	}
	_, res, err := pool.Buy(amountAIn, math.ZeroInt(), caller, tick)
	if err != nil {
		return types.SwapQuote{}, err
	}
	return res.Quote(), nil
}

// QuoteSell returns the net outcome of a sell without committing it
func (k *Keeper) QuoteSell(ctx sdk.Context, caller, poolID string, amountBIn math.Int, tick uint64) (types.SwapQuote, error) {
	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return types.SwapQuote{}, err
	}
	_, res, err := pool.Sell(amountBIn, math.ZeroInt(), caller, tick)
	if err != nil {
		return types.SwapQuote{}, err
	}
	return res.Quote(), nil
}

// errorReason labels an error for metrics
func errorReason(err error) string {
	for _, e := range []error{
		types.ErrPoolNotFound,
		types.ErrPoolDisabled,
		types.ErrPoolEmpty,
		types.ErrInsufficientInput,
		types.ErrInsufficientOutput,
		types.ErrArithmeticOverflow,
		types.ErrInvariantViolation,
	} {
		if errorsmod.IsOf(err, e) {
			return e.Error()
		}
	}
	return "other"
}
