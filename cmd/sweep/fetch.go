package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantsweep/sweepd/internal/chain"
	"github.com/quantsweep/sweepd/internal/config"
	"github.com/quantsweep/sweepd/internal/notify"
	"github.com/quantsweep/sweepd/internal/quant"
	"github.com/quantsweep/sweepd/internal/store"
)

func fetchCmd() *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch chain snapshots for the configured symbols and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := cfg.Symbols
			if len(symbols) > 0 {
				targets = symbols
			}
			return runRefresh(cmd.Context(), cfg, targets, logger)
		},
	}

	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "symbols to fetch (defaults to configured list)")

	return cmd
}

// runRefresh fetches every target symbol, persists the snapshots, rewrites
// the chart levels export and reports the outcome. Shared between the fetch
// command and the daemon.
func runRefresh(ctx context.Context, cfg *config.Config, symbols []string, logger *zap.Logger) error {
	start := time.Now()

	fetcher := newFetcher(cfg, logger)
	notifier := notify.New(cfg.Notify, logger)

	st, err := store.New(cfg.Store.Directory, logger)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	result, err := fetcher.FetchAll(ctx, symbols)
	if err != nil {
		_ = notifier.SendFailure(ctx, result, time.Since(start), err)
		return fmt.Errorf("fetching snapshots: %w", err)
	}

	tv := store.TVLevels{Updated: time.Now().UTC(), Symbols: make(map[string]store.TVSymbolSet)}

	for _, snap := range result.Snapshots {
		if _, err := st.Write(snap); err != nil {
			logger.Error("failed to store snapshot",
				zap.String("symbol", snap.Symbol),
				zap.Error(err),
			)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", snap.Symbol, err))
			continue
		}

		if cfg.Store.TVExport {
			levels := computeLevels(snap, cfg)
			for _, m := range levels.PerExpiry {
				if m.DroppedContracts > 0 {
					logger.Warn("dropped malformed contracts",
						zap.String("symbol", snap.Symbol),
						zap.String("expiry", m.Date),
						zap.Int("dropped", m.DroppedContracts))
				}
			}
			if set, ok := store.TVSymbolSetFrom(snap.Spot, levels.PerExpiry); ok {
				tv.Symbols[snap.Symbol] = set
			}
		}
	}

	if cfg.Store.TVExport && len(tv.Symbols) > 0 {
		if _, err := st.WriteTVLevels(tv); err != nil {
			logger.Error("failed to write tv levels", zap.Error(err))
		}
	}

	duration := time.Since(start)
	logger.Info("refresh complete",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("notFound", result.NotFound),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", duration),
	)

	if result.Failed > 0 {
		err := fmt.Errorf("%d of %d symbols failed", result.Failed, result.Total)
		_ = notifier.SendFailure(ctx, result, duration, err)
		return err
	}

	_ = notifier.SendSuccess(ctx, result, duration)
	return nil
}

func computeLevels(snap *chain.Snapshot, cfg *config.Config) quant.Result {
	return quant.ComputeAnalytics(snap.Expiries, snap.Spot, snap.Generated, quant.Options{
		RiskFreeRate: cfg.Analytics.RiskFreeRate,
		WallTopN:     cfg.Analytics.WallTopN,
	})
}
