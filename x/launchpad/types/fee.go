package types

import (
	stdmath "math"
)

// MaxFeeBps is the fee charged at the reference tick, before any decay
const MaxFeeBps uint16 = BpsDenominator

// ProtocolFeeShareBps is the share of every collected fee routed to the protocol
const ProtocolFeeShareBps uint16 = 2_000 // 20%

// FeeSchedule describes how the swap fee decays after a reference tick
type FeeSchedule struct {
	NormalizationPeriod uint64  `json:"normalization_period"` // ticks until the fee settles at RoyaltiesBps
	Decay               float64 `json:"decay"`                // exponential decay rate per normalization period
	RoyaltiesBps        uint16  `json:"royalties_bps"`        // base fee floor
	Reference           uint64  `json:"reference"`            // tick at which the fee is MaxFeeBps
	PrivilegedSwapper   string  `json:"privileged_swapper,omitempty"`
	FeeExemptBuys       uint16  `json:"fee_exempt_buys"`
}

// FeeResolution is the outcome of fee resolution for a single swap
type FeeResolution struct {
	Bps               uint16
	Exempt            bool
	ConsumesExemption bool
}

// Validate checks the schedule at construction time
func (fs FeeSchedule) Validate() error {
	if fs.NormalizationPeriod == 0 {
		return ErrInvalidFeeSchedule.Wrap("normalization period must be positive")
	}
	if stdmath.IsNaN(fs.Decay) || stdmath.IsInf(fs.Decay, 0) || fs.Decay <= 0 {
		return ErrInvalidFeeSchedule.Wrapf("decay must be a positive finite number, got %v", fs.Decay)
	}
	if fs.RoyaltiesBps > BpsDenominator {
		return ErrInvalidFeeSchedule.Wrapf("royalties bps %d exceeds %d", fs.RoyaltiesBps, BpsDenominator)
	}
	return nil
}

// FeeBps returns the decayed fee rate at tick, ignoring exemptions.
// The rate is non-increasing in tick and equals RoyaltiesBps once the
// normalization period has elapsed.
func (fs FeeSchedule) FeeBps(tick uint64) uint16 {
	var elapsed uint64
	if tick > fs.Reference {
		elapsed = tick - fs.Reference
	}
	if fs.RoyaltiesBps >= MaxFeeBps {
		return MaxFeeBps
	}
	if fs.NormalizationPeriod == 0 || elapsed >= fs.NormalizationPeriod {
		return fs.RoyaltiesBps
	}

	factor := stdmath.Exp(-fs.Decay * float64(elapsed) / float64(fs.NormalizationPeriod))
	if stdmath.IsNaN(factor) || factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}

	span := float64(MaxFeeBps - fs.RoyaltiesBps)
	extra := uint16(stdmath.Floor(factor * span))
	if extra > MaxFeeBps-fs.RoyaltiesBps {
		extra = MaxFeeBps - fs.RoyaltiesBps
	}
	return fs.RoyaltiesBps + extra
}

// Resolve determines the fee for a swap by caller at tick.
// A privileged swapper never pays; otherwise buys consume the remaining
// exempt-buy allowance before the decayed rate applies.
func (fs FeeSchedule) Resolve(caller string, tick uint64, isBuy bool) FeeResolution {
	if fs.PrivilegedSwapper != "" && caller == fs.PrivilegedSwapper {
		return FeeResolution{Bps: 0, Exempt: true}
	}
	if isBuy && fs.FeeExemptBuys > 0 {
		return FeeResolution{Bps: 0, Exempt: true, ConsumesExemption: true}
	}
	return FeeResolution{Bps: fs.FeeBps(tick)}
}
