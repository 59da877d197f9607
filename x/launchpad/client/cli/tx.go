package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/launchpad/x/launchpad/types"
)

// Fee schedule flags
const (
	FlagNormalizationPeriod = "normalization-period"
	FlagDecay               = "decay"
	FlagRoyaltiesBps        = "royalties-bps"
	FlagReference           = "reference"
	FlagPrivilegedSwapper   = "privileged-swapper"
	FlagFeeExemptBuys       = "fee-exempt-buys"
	FlagDecimals            = "decimals"
	FlagMetadataMutable     = "metadata-mutable"
	FlagDevBuy              = "dev-buy"
	FlagMinOut              = "min-out"
	FlagReceiver            = "receiver"
	FlagInitialReserveA     = "initial-reserve-a"
)

// GetTxCmd returns the transaction commands for the launchpad module.
// Messages are executed by the launchpad-api service rather than broadcast
// as chain transactions.
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Launchpad module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreateFactory(),
		CmdLaunch(),
		CmdCreatePool(),
		CmdBuy(),
		CmdSell(),
		CmdClaimRoyalties(),
		CmdClaimProtocolFees(),
		CmdSetPoolEnabled(),
	)

	return cmd
}

// addFeeScheduleFlags registers the fee schedule flags on cmd
func addFeeScheduleFlags(fs *pflag.FlagSet) {
	fs.Uint64(FlagNormalizationPeriod, 1_000, "Blocks until the fee settles at the royalty rate")
	fs.Float64(FlagDecay, 5, "Exponential decay rate per normalization period")
	fs.Uint16(FlagRoyaltiesBps, 100, "Base fee in basis points")
	fs.String(FlagPrivilegedSwapper, "", "Address that never pays fees")
	fs.Uint16(FlagFeeExemptBuys, 0, "Number of fee-free buys after launch")
}

// feeScheduleFromFlags reads the fee schedule flags
func feeScheduleFromFlags(fs *pflag.FlagSet) (types.FeeSchedule, error) {
	var (
		sched types.FeeSchedule
		err   error
	)
	if sched.NormalizationPeriod, err = fs.GetUint64(FlagNormalizationPeriod); err != nil {
		return sched, err
	}
	if sched.Decay, err = fs.GetFloat64(FlagDecay); err != nil {
		return sched, err
	}
	if sched.RoyaltiesBps, err = fs.GetUint16(FlagRoyaltiesBps); err != nil {
		return sched, err
	}
	if sched.PrivilegedSwapper, err = fs.GetString(FlagPrivilegedSwapper); err != nil {
		return sched, err
	}
	if sched.FeeExemptBuys, err = fs.GetUint16(FlagFeeExemptBuys); err != nil {
		return sched, err
	}
	return sched, nil
}

// CmdCreateFactory returns the command to register a launch template
func CmdCreateFactory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-factory [factory-id] [quote-asset] [shift] [initial-reserve-b]",
		Short: "Register a launch template",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}

			fees, err := feeScheduleFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			decimals, err := cmd.Flags().GetUint8(FlagDecimals)
			if err != nil {
				return err
			}
			mutable, err := cmd.Flags().GetBool(FlagMetadataMutable)
			if err != nil {
				return err
			}

			msg := &types.MsgCreateFactory{
				Creator:             from,
				FactoryID:           args[0],
				QuoteAsset:          args[1],
				Shift:               args[2],
				InitialRealReserveB: args[3],
				FeeTemplate:         fees,
				Decimals:            decimals,
				MetadataMutable:     mutable,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteCreateFactory, msg)
		},
	}

	addFeeScheduleFlags(cmd.Flags())
	cmd.Flags().Uint8(FlagDecimals, 6, "Display decimals of launched assets")
	cmd.Flags().Bool(FlagMetadataMutable, false, "Whether launched asset metadata may change")
	addSubmitFlags(cmd)
	return cmd
}

// CmdLaunch returns the command to launch a pool from a factory
func CmdLaunch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch [factory-id] [symbol]",
		Short: "Launch a new asset and its pool from a factory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}

			devBuy, err := cmd.Flags().GetString(FlagDevBuy)
			if err != nil {
				return err
			}

			msg := &types.MsgLaunch{
				Creator:      from,
				FactoryID:    args[0],
				Symbol:       args[1],
				DevBuyAmount: devBuy,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteLaunch, msg)
		},
	}

	cmd.Flags().String(FlagDevBuy, "", "Amount of quote asset to buy right after launch")
	addSubmitFlags(cmd)
	return cmd
}

// CmdCreatePool returns the command to create a pool without a factory
func CmdCreatePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool [asset-a] [asset-b] [shift] [initial-reserve-b]",
		Short: "Create a pool with explicit reserves and fee schedule",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}

			fees, err := feeScheduleFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if fees.Reference, err = cmd.Flags().GetUint64(FlagReference); err != nil {
				return err
			}
			reserveA, err := cmd.Flags().GetString(FlagInitialReserveA)
			if err != nil {
				return err
			}

			msg := &types.MsgCreatePool{
				Creator:         from,
				AssetA:          args[0],
				AssetB:          args[1],
				Shift:           args[2],
				InitialReserveA: reserveA,
				InitialReserveB: args[3],
				FeeSchedule:     fees,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteCreatePool, msg)
		},
	}

	addFeeScheduleFlags(cmd.Flags())
	cmd.Flags().Uint64(FlagReference, 0, "Block at which the fee starts decaying")
	cmd.Flags().String(FlagInitialReserveA, "", "Initial real reserve of asset A")
	addSubmitFlags(cmd)
	return cmd
}

// CmdBuy returns the command to buy asset B with asset A
func CmdBuy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy [pool-id] [amount-a-in]",
		Short: "Buy the project asset of a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}
			minOut, err := cmd.Flags().GetString(FlagMinOut)
			if err != nil {
				return err
			}

			msg := &types.MsgBuy{
				Trader:        from,
				PoolID:        args[0],
				AmountAIn:     args[1],
				MinAmountBOut: minOut,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteBuy, msg)
		},
	}

	cmd.Flags().String(FlagMinOut, "", "Minimum amount of asset B to receive")
	addSubmitFlags(cmd)
	return cmd
}

// CmdSell returns the command to sell asset B for asset A
func CmdSell() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell [pool-id] [amount-b-in]",
		Short: "Sell the project asset of a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}
			minOut, err := cmd.Flags().GetString(FlagMinOut)
			if err != nil {
				return err
			}

			msg := &types.MsgSell{
				Trader:        from,
				PoolID:        args[0],
				AmountBIn:     args[1],
				MinAmountAOut: minOut,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteSell, msg)
		},
	}

	cmd.Flags().String(FlagMinOut, "", "Minimum amount of asset A to receive")
	addSubmitFlags(cmd)
	return cmd
}

// CmdClaimRoyalties returns the command to claim pool royalties
func CmdClaimRoyalties() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim-royalties [pool-id]",
		Short: "Claim the accrued royalties of a pool you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}
			receiver, err := cmd.Flags().GetString(FlagReceiver)
			if err != nil {
				return err
			}

			msg := &types.MsgClaimRoyalties{
				Claimant: from,
				PoolID:   args[0],
				Receiver: receiver,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteClaimRoyalties, msg)
		},
	}

	cmd.Flags().String(FlagReceiver, "", "Address receiving the royalties (defaults to sender)")
	addSubmitFlags(cmd)
	return cmd
}

// CmdClaimProtocolFees returns the command to claim protocol fees
func CmdClaimProtocolFees() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim-protocol-fees [pool-id]",
		Short: "Claim the accrued protocol fees of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}
			receiver, err := cmd.Flags().GetString(FlagReceiver)
			if err != nil {
				return err
			}

			msg := &types.MsgClaimProtocolFees{
				Claimant: from,
				PoolID:   args[0],
				Receiver: receiver,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteClaimProtocolFees, msg)
		},
	}

	cmd.Flags().String(FlagReceiver, "", "Address receiving the fees (defaults to sender)")
	addSubmitFlags(cmd)
	return cmd
}

// CmdSetPoolEnabled returns the command to enable or disable a pool
func CmdSetPoolEnabled() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-pool-enabled [pool-id] [true|false]",
		Short: "Enable or disable swaps on a pool you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString(flags.FlagFrom)
			if err != nil {
				return err
			}
			enabled, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}

			msg := &types.MsgSetPoolEnabled{
				Owner:   from,
				PoolID:  args[0],
				Enabled: enabled,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return submit(cmd, RouteSetPoolEnabled, msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}
