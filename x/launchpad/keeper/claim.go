package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// Fee claim kinds
const (
	ClaimKindRoyalties    = "royalties"
	ClaimKindProtocolFees = "protocol_fees"
)

// ClaimRoyalties pays the accrued royalties of a pool to receiver. Only the
// pool owner may claim.
func (k *Keeper) ClaimRoyalties(ctx sdk.Context, claimant, poolID, receiver string) (types.Claim, error) {
	unlock := k.lockPool(poolID)
	defer unlock()

	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return types.Claim{}, err
	}
	next, claim, err := pool.ClaimRoyalties(claimant, receiver)
	if err != nil {
		return types.Claim{}, err
	}
	if err := k.settleClaim(ctx, next, claim, types.EventTypeClaimRoyalties); err != nil {
		return types.Claim{}, err
	}

	k.logger.Info("Royalties claimed", "pool_id", poolID, "receiver", claim.Receiver, "amount", claim.Amount)
	if k.metrics != nil {
		k.metrics.RecordClaim(poolID, ClaimKindRoyalties, claim.Amount)
	}
	return claim, nil
}

// ClaimProtocolFees pays the accrued protocol fees of a pool to receiver.
// Only the protocol fee authority from params may claim.
func (k *Keeper) ClaimProtocolFees(ctx sdk.Context, claimant, poolID, receiver string) (types.Claim, error) {
	unlock := k.lockPool(poolID)
	defer unlock()

	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return types.Claim{}, err
	}
	authority := k.GetParams(ctx).ProtocolFeeAuthority
	next, claim, err := pool.ClaimProtocolFees(claimant, authority, receiver)
	if err != nil {
		return types.Claim{}, err
	}
	if err := k.settleClaim(ctx, next, claim, types.EventTypeClaimProtocolFees); err != nil {
		return types.Claim{}, err
	}

	k.logger.Info("Protocol fees claimed", "pool_id", poolID, "receiver", claim.Receiver, "amount", claim.Amount)
	if k.metrics != nil {
		k.metrics.RecordClaim(poolID, ClaimKindProtocolFees, claim.Amount)
	}
	return claim, nil
}

func (k *Keeper) settleClaim(ctx sdk.Context, next types.Pool, claim types.Claim, eventType string) error {
	cacheCtx, write := ctx.CacheContext()
	if err := k.pay(cacheCtx, claim.Receiver, claim.Denom, math.NewIntFromUint64(claim.Amount)); err != nil {
		return err
	}
	if err := k.SetPool(cacheCtx, next); err != nil {
		return err
	}
	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyPoolID, next.ID()),
			sdk.NewAttribute(types.AttributeKeyReceiver, claim.Receiver),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(claim.Amount, 10)),
		),
	)
	k.recordPool(next)
	return nil
}
