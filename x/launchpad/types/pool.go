package types

import (
	"cosmossdk.io/math"
)

// Swap directions
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Pool is the persisted record of one bonding curve between a quote asset (A)
// and a project asset (B). RealReserveA includes fee accruals that have not
// been claimed yet.
type Pool struct {
	Owner  string `json:"owner"`
	AssetA string `json:"asset_a"`
	AssetB string `json:"asset_b"`

	RealReserveA math.Int `json:"real_reserve_a"`
	RealReserveB math.Int `json:"real_reserve_b"`
	Shift        math.Int `json:"shift"` // virtual A reserve, immutable

	AccruedRoyalties    uint64 `json:"accrued_royalties"`
	AccruedProtocolFees uint64 `json:"accrued_protocol_fees"`

	FeeSchedule FeeSchedule `json:"fee_schedule"`
	Enabled     bool        `json:"enabled"`

	FactoryID string `json:"factory_id,omitempty"`
	CreatedAt uint64 `json:"created_at"`
	UpdatedAt uint64 `json:"updated_at"`
}

// SwapResult describes a committed (or quoted) swap
type SwapResult struct {
	Side        string   `json:"side"`
	AmountIn    math.Int `json:"amount_in"`
	RawOut      math.Int `json:"raw_out"`    // curve output before fees
	AmountOut   math.Int `json:"amount_out"` // paid to the trader
	FeeBps      uint16   `json:"fee_bps"`
	FeeOut      math.Int `json:"fee_out"` // fee withheld from the output asset
	FeeA        math.Int `json:"fee_a"`   // fee accrued in asset A
	RoyaltyFee  uint64   `json:"royalty_fee"`
	ProtocolFee uint64   `json:"protocol_fee"`
	Exempt      bool     `json:"exempt"`
	KBefore     math.Int `json:"k_before"`
	KAfter      math.Int `json:"k_after"`
}

// SwapQuote is the read-only view of a swap
type SwapQuote struct {
	Raw    math.Int `json:"raw"`
	Fee    math.Int `json:"fee"`
	Net    math.Int `json:"net"`
	FeeBps uint16   `json:"fee_bps"`
	Exempt bool     `json:"exempt"`
}

// Quote drops the bookkeeping fields of a swap result
func (r SwapResult) Quote() SwapQuote {
	return SwapQuote{Raw: r.RawOut, Fee: r.FeeOut, Net: r.AmountOut, FeeBps: r.FeeBps, Exempt: r.Exempt}
}

// Claim describes fees released by a claim
type Claim struct {
	Receiver string `json:"receiver"`
	Denom    string `json:"denom"`
	Amount   uint64 `json:"amount"`
}

// NewPool validates and creates an enabled pool
func NewPool(owner, assetA, assetB string, shift, reserveA, reserveB math.Int, fees FeeSchedule, tick uint64) (Pool, error) {
	p := Pool{
		Owner:        owner,
		AssetA:       assetA,
		AssetB:       assetB,
		RealReserveA: reserveA,
		RealReserveB: reserveB,
		Shift:        shift,
		FeeSchedule:  fees,
		Enabled:      true,
		CreatedAt:    tick,
		UpdatedAt:    tick,
	}
	if err := p.Validate(); err != nil {
		return Pool{}, err
	}
	return p, nil
}

// ID returns the pool's map key
func (p Pool) ID() string {
	return PoolID(p.Owner, p.AssetA, p.AssetB)
}

// Validate checks the stored record
func (p Pool) Validate() error {
	if p.Owner == "" {
		return ErrInvalidAddress.Wrap("pool owner is empty")
	}
	if p.AssetA == "" || p.AssetB == "" {
		return ErrInvalidDenom.Wrap("pool assets must be set")
	}
	if p.AssetA == p.AssetB {
		return ErrInvalidDenom.Wrapf("pool assets must differ, both are %s", p.AssetA)
	}
	if err := ValidatePoolIDSegment(p.Owner, ErrInvalidAddress); err != nil {
		return err
	}
	for _, denom := range []string{p.AssetA, p.AssetB} {
		if err := ValidatePoolIDSegment(denom, ErrInvalidDenom); err != nil {
			return err
		}
	}
	if p.Shift.IsNil() || p.RealReserveA.IsNil() || p.RealReserveB.IsNil() {
		return ErrInvalidInitialReserves.Wrap("reserves must be set")
	}
	if !IsUint128(p.Shift) || !IsUint128(p.RealReserveA) || !IsUint128(p.RealReserveB) {
		return ErrInvalidInitialReserves.Wrap("reserves must be unsigned 128-bit values")
	}
	if p.Shift.IsZero() {
		return ErrInvalidInitialReserves.Wrap("shift must be positive")
	}
	if p.RealReserveB.IsZero() {
		return ErrInvalidInitialReserves.Wrap("asset B reserve must be positive")
	}
	if err := p.FeeSchedule.Validate(); err != nil {
		return err
	}
	accrued, err := p.accruedTotal()
	if err != nil {
		return err
	}
	if p.RealReserveA.LT(accrued) {
		return ErrInvariantViolation.Wrapf("reserve A %s does not cover accrued fees %s", p.RealReserveA, accrued)
	}
	return nil
}

// Invariant returns k = (RealReserveA + Shift) * RealReserveB
func (p Pool) Invariant() (math.Int, error) {
	return Invariant(p.RealReserveA, p.RealReserveB, p.Shift)
}

// SpotPrice returns the marginal price of one unit of B in units of A
func (p Pool) SpotPrice() math.LegacyDec {
	if p.RealReserveB.IsNil() || p.RealReserveB.IsZero() {
		return math.LegacyZeroDec()
	}
	virtualA := p.RealReserveA.Add(p.Shift)
	return math.LegacyNewDecFromInt(virtualA).Quo(math.LegacyNewDecFromInt(p.RealReserveB))
}

// Buy swaps amountAIn of asset A for asset B. The fee is withheld from the
// B output and stays in the curve, while its A-denominated value is accrued
// for royalty and protocol claims.
func (p Pool) Buy(amountAIn, minAmountBOut math.Int, caller string, tick uint64) (Pool, SwapResult, error) {
	if !p.Enabled {
		return p, SwapResult{}, ErrPoolDisabled.Wrap(p.ID())
	}
	kBefore, err := p.Invariant()
	if err != nil {
		return p, SwapResult{}, err
	}

	raw, err := QuoteBuy(p.RealReserveA, p.RealReserveB, p.Shift, amountAIn)
	if err != nil {
		return p, SwapResult{}, err
	}

	fee := p.FeeSchedule.Resolve(caller, tick, true)
	bps := math.NewInt(int64(fee.Bps))
	feeB, err := MulDivUp(raw, bps, math.NewInt(BpsDenominator))
	if err != nil {
		return p, SwapResult{}, err
	}
	net, err := CheckedSub(raw, feeB)
	if err != nil {
		return p, SwapResult{}, err
	}
	if net.IsZero() {
		return p, SwapResult{}, ErrInsufficientOutput.Wrapf("buy of %s at %d bps yields no output", amountAIn, fee.Bps)
	}
	if net.LT(orZero(minAmountBOut)) {
		return p, SwapResult{}, ErrInsufficientOutput.Wrapf("buy output %s below minimum %s", net, minAmountBOut)
	}
	feeA, err := MulDiv(amountAIn, bps, math.NewInt(BpsDenominator))
	if err != nil {
		return p, SwapResult{}, err
	}

	next := p
	if next.RealReserveA, err = CheckedAdd(p.RealReserveA, amountAIn); err != nil {
		return p, SwapResult{}, err
	}
	if next.RealReserveB, err = CheckedSub(p.RealReserveB, net); err != nil {
		return p, SwapResult{}, err
	}
	royalty, protocol, err := next.accrue(feeA)
	if err != nil {
		return p, SwapResult{}, err
	}
	if fee.ConsumesExemption {
		next.FeeSchedule.FeeExemptBuys--
	}
	next.UpdatedAt = tick

	kAfter, err := next.checkGrowth(kBefore)
	if err != nil {
		return p, SwapResult{}, err
	}

	return next, SwapResult{
		Side:        SideBuy,
		AmountIn:    amountAIn,
		RawOut:      raw,
		AmountOut:   net,
		FeeBps:      fee.Bps,
		FeeOut:      feeB,
		FeeA:        feeA,
		RoyaltyFee:  royalty,
		ProtocolFee: protocol,
		Exempt:      fee.Exempt,
		KBefore:     kBefore,
		KAfter:      kAfter,
	}, nil
}

// Sell swaps amountBIn of asset B for asset A. The fee is withheld from the
// A output and remains in the A reserve as accrued fees until claimed.
func (p Pool) Sell(amountBIn, minAmountAOut math.Int, caller string, tick uint64) (Pool, SwapResult, error) {
	if !p.Enabled {
		return p, SwapResult{}, ErrPoolDisabled.Wrap(p.ID())
	}
	kBefore, err := p.Invariant()
	if err != nil {
		return p, SwapResult{}, err
	}

	raw, err := QuoteSell(p.RealReserveA, p.RealReserveB, p.Shift, amountBIn)
	if err != nil {
		return p, SwapResult{}, err
	}
	accrued, err := p.accruedTotal()
	if err != nil {
		return p, SwapResult{}, err
	}
	available, err := CheckedSub(p.RealReserveA, accrued)
	if err != nil {
		return p, SwapResult{}, err
	}
	if raw.GT(available) {
		return p, SwapResult{}, ErrPoolEmpty.Wrapf("sell payout %s exceeds unencumbered reserve %s", raw, available)
	}

	fee := p.FeeSchedule.Resolve(caller, tick, false)
	feeA, err := MulDivUp(raw, math.NewInt(int64(fee.Bps)), math.NewInt(BpsDenominator))
	if err != nil {
		return p, SwapResult{}, err
	}
	net, err := CheckedSub(raw, feeA)
	if err != nil {
		return p, SwapResult{}, err
	}
	if net.IsZero() {
		return p, SwapResult{}, ErrInsufficientOutput.Wrapf("sell of %s at %d bps yields no output", amountBIn, fee.Bps)
	}
	if net.LT(orZero(minAmountAOut)) {
		return p, SwapResult{}, ErrInsufficientOutput.Wrapf("sell output %s below minimum %s", net, minAmountAOut)
	}

	next := p
	if next.RealReserveA, err = CheckedSub(p.RealReserveA, net); err != nil {
		return p, SwapResult{}, err
	}
	if next.RealReserveB, err = CheckedAdd(p.RealReserveB, amountBIn); err != nil {
		return p, SwapResult{}, err
	}
	royalty, protocol, err := next.accrue(feeA)
	if err != nil {
		return p, SwapResult{}, err
	}
	next.UpdatedAt = tick

	kAfter, err := next.checkGrowth(kBefore)
	if err != nil {
		return p, SwapResult{}, err
	}

	return next, SwapResult{
		Side:        SideSell,
		AmountIn:    amountBIn,
		RawOut:      raw,
		AmountOut:   net,
		FeeBps:      fee.Bps,
		FeeOut:      feeA,
		FeeA:        feeA,
		RoyaltyFee:  royalty,
		ProtocolFee: protocol,
		Exempt:      fee.Exempt,
		KBefore:     kBefore,
		KAfter:      kAfter,
	}, nil
}

// ClaimRoyalties releases all accrued royalties to receiver, which defaults
// to the owner.
func (p Pool) ClaimRoyalties(caller, receiver string) (Pool, Claim, error) {
	if caller == "" || caller != p.Owner {
		return p, Claim{}, ErrIllegalClaimant.Wrapf("%s is not the royalty authority of %s", caller, p.ID())
	}
	if receiver == "" {
		receiver = caller
	}

	next := p
	amount := p.AccruedRoyalties
	reserveA, err := CheckedSub(p.RealReserveA, math.NewIntFromUint64(amount))
	if err != nil {
		return p, Claim{}, err
	}
	next.RealReserveA = reserveA
	next.AccruedRoyalties = 0
	return next, Claim{Receiver: receiver, Denom: p.AssetA, Amount: amount}, nil
}

// ClaimProtocolFees releases all accrued protocol fees. Only the protocol fee
// authority may claim.
func (p Pool) ClaimProtocolFees(caller, authority, receiver string) (Pool, Claim, error) {
	if authority == "" || caller != authority {
		return p, Claim{}, ErrIllegalClaimant.Wrapf("%s is not the protocol fee authority", caller)
	}
	if receiver == "" {
		receiver = caller
	}

	next := p
	amount := p.AccruedProtocolFees
	reserveA, err := CheckedSub(p.RealReserveA, math.NewIntFromUint64(amount))
	if err != nil {
		return p, Claim{}, err
	}
	next.RealReserveA = reserveA
	next.AccruedProtocolFees = 0
	return next, Claim{Receiver: receiver, Denom: p.AssetA, Amount: amount}, nil
}

// SetEnabled toggles swapping. Only the owner may toggle.
func (p Pool) SetEnabled(caller string, enabled bool, tick uint64) (Pool, error) {
	if caller != p.Owner {
		return p, ErrUnauthorized.Wrapf("%s does not own %s", caller, p.ID())
	}
	next := p
	next.Enabled = enabled
	next.UpdatedAt = tick
	return next, nil
}

// accrue splits feeA between protocol and royalties and books both counters
func (p *Pool) accrue(feeA math.Int) (royalty, protocol uint64, err error) {
	total, err := ToUint64(feeA)
	if err != nil {
		return 0, 0, err
	}
	protocol = total / BpsDenominator * uint64(ProtocolFeeShareBps)
	protocol += total % BpsDenominator * uint64(ProtocolFeeShareBps) / BpsDenominator
	royalty = total - protocol

	if p.AccruedRoyalties, err = AddUint64(p.AccruedRoyalties, royalty); err != nil {
		return 0, 0, err
	}
	if p.AccruedProtocolFees, err = AddUint64(p.AccruedProtocolFees, protocol); err != nil {
		return 0, 0, err
	}
	return royalty, protocol, nil
}

func (p Pool) accruedTotal() (math.Int, error) {
	return CheckedAdd(math.NewIntFromUint64(p.AccruedRoyalties), math.NewIntFromUint64(p.AccruedProtocolFees))
}

// checkGrowth guards k' >= k after a swap
func (p Pool) checkGrowth(kBefore math.Int) (math.Int, error) {
	kAfter, err := p.Invariant()
	if err != nil {
		return math.ZeroInt(), err
	}
	if kAfter.LT(kBefore) {
		return math.ZeroInt(), ErrInvariantViolation.Wrapf("k fell from %s to %s", kBefore, kAfter)
	}
	return kAfter, nil
}

func orZero(v math.Int) math.Int {
	if v.IsNil() {
		return math.ZeroInt()
	}
	return v
}
