package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openalpha/launchpad/internal/loadtest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadtest.DefaultConfig()
	var output string

	cmd := &cobra.Command{
		Use:          "launchpad-loadtest",
		Short:        "Drive buy, sell and quote traffic against a launchpad-api server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := loadtest.New(cfg).Run(cmd.Context())
			if err != nil {
				return err
			}

			bz, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			if output != "" {
				return os.WriteFile(output, bz, 0o644)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "API base URL")
	f.IntVarP(&cfg.Concurrency, "concurrency", "c", cfg.Concurrency, "concurrent workers")
	f.DurationVarP(&cfg.Duration, "duration", "d", cfg.Duration, "test duration")
	f.DurationVar(&cfg.RampUp, "ramp", cfg.RampUp, "ramp-up time")
	f.IntVar(&cfg.Pools, "pools", cfg.Pools, "pools launched before the run")
	f.IntVar(&cfg.TraderCount, "traders", cfg.TraderCount, "traders per worker")
	f.StringVar(&cfg.FactoryID, "factory", cfg.FactoryID, "factory used for the launches")
	f.StringVar(&cfg.QuoteAsset, "quote-asset", cfg.QuoteAsset, "quote asset of the factory")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.StringVarP(&output, "output", "o", "", "write the JSON report to this file")
	return cmd
}
