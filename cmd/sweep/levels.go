package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantsweep/sweepd/internal/chain"
	"github.com/quantsweep/sweepd/internal/store"
)

func levelsCmd() *cobra.Command {
	var (
		live   bool
		expiry string
	)

	cmd := &cobra.Command{
		Use:   "levels <symbol>",
		Short: "Compute and print the analytics levels for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]

			var (
				snap *chain.Snapshot
				err  error
			)
			if live || expiry != "" {
				fetcher := newFetcher(cfg, logger)
				snap, err = fetcher.Snapshot(cmd.Context(), symbol, expiry)
				if err != nil {
					return fmt.Errorf("fetching %s: %w", symbol, err)
				}
			} else {
				st, err := store.New(cfg.Store.Directory, logger)
				if err != nil {
					return fmt.Errorf("creating store: %w", err)
				}
				snap, err = st.Latest(symbol)
				if err != nil {
					return fmt.Errorf("loading stored snapshot for %s (try --live): %w", symbol, err)
				}
			}

			result := computeLevels(snap, cfg)

			out := map[string]any{
				"symbol":      snap.Symbol,
				"spot":        snap.Spot,
				"spotSource":  snap.SpotSource,
				"generated":   snap.Generated,
				"perExpiry":   result.PerExpiry,
				"crossExpiry": result.CrossExpiry,
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "fetch a fresh snapshot instead of reading the store")
	cmd.Flags().StringVar(&expiry, "expiry", "", "single expiration date (YYYY-MM-DD), implies a live fetch")

	return cmd
}
