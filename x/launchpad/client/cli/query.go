package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// CurveQuote is a CLI-friendly fee-free curve quote
type CurveQuote struct {
	Side       string `json:"side"`
	AmountIn   string `json:"amount_in"`
	AmountOut  string `json:"amount_out"`
	SpotBefore string `json:"spot_before"`
	SpotAfter  string `json:"spot_after"`
}

// FeeRate is a CLI-friendly fee schedule evaluation
type FeeRate struct {
	Tick      uint64 `json:"tick"`
	FeeBps    uint16 `json:"fee_bps"`
	Exempt    bool   `json:"exempt"`
	Reference uint64 `json:"reference"`
}

// GetQueryCmd returns the cli query commands for the launchpad module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the launchpad module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQuoteCurve(types.SideBuy),
		CmdQuoteCurve(types.SideSell),
		CmdFeeRate(),
		CmdLaunchDenom(),
	)

	return cmd
}

// CmdQuoteCurve returns the command to evaluate the bonding curve offline
func CmdQuoteCurve(side string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("quote-%s [reserve-a] [reserve-b] [shift] [amount-in]", side),
		Short: fmt.Sprintf("Evaluate a fee-free %s against the given reserves", side),
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := quoteCurve(side, args)
			if err != nil {
				return err
			}
			output, _ := json.MarshalIndent(q, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

func quoteCurve(side string, args []string) (CurveQuote, error) {
	amounts := make([]math.Int, len(args))
	for i, arg := range args {
		v, err := types.ParseAmount(arg)
		if err != nil {
			return CurveQuote{}, err
		}
		amounts[i] = v
	}
	reserveA, reserveB, shift, amountIn := amounts[0], amounts[1], amounts[2], amounts[3]

	var (
		out          math.Int
		err          error
		nextA, nextB math.Int
	)
	if side == types.SideBuy {
		out, err = types.QuoteBuy(reserveA, reserveB, shift, amountIn)
		nextA, nextB = reserveA.Add(amountIn), reserveB.Sub(out)
	} else {
		out, err = types.QuoteSell(reserveA, reserveB, shift, amountIn)
		nextA, nextB = reserveA.Sub(out), reserveB.Add(amountIn)
	}
	if err != nil {
		return CurveQuote{}, err
	}

	return CurveQuote{
		Side:       side,
		AmountIn:   amountIn.String(),
		AmountOut:  out.String(),
		SpotBefore: spot(reserveA, reserveB, shift),
		SpotAfter:  spot(nextA, nextB, shift),
	}, nil
}

func spot(reserveA, reserveB, shift math.Int) string {
	if !reserveB.IsPositive() {
		return "0"
	}
	return math.LegacyNewDecFromInt(reserveA.Add(shift)).QuoInt(reserveB).String()
}

// CmdFeeRate returns the command to evaluate a fee schedule at a tick
func CmdFeeRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-rate [reference] [tick]",
		Short: "Evaluate the decaying swap fee of a schedule at a tick",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := feeScheduleFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if sched.Reference, err = strconv.ParseUint(args[0], 10, 64); err != nil {
				return err
			}
			tick, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return err
			}
			if err := sched.Validate(); err != nil {
				return err
			}

			res := sched.Resolve("", tick, true)
			output, _ := json.MarshalIndent(FeeRate{
				Tick:      tick,
				FeeBps:    res.Bps,
				Exempt:    res.Exempt,
				Reference: sched.Reference,
			}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	addFeeScheduleFlags(cmd.Flags())
	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdLaunchDenom returns the command to derive the denom a launch mints
func CmdLaunchDenom() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch-denom [factory-id] [owner] [symbol]",
		Short: "Show the denom a launch from a factory would mint",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), types.LaunchDenom(args[0], args[1], args[2]))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
