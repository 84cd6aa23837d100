package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func daemonCmd() *cobra.Command {
	var (
		at           string
		timezone     string
		runOnStartup bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Refresh snapshots once per trading day at a scheduled time",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler, err := NewScheduler(at, timezone)
			if err != nil {
				return err
			}
			tracker := newRefreshTracker(filepath.Join(cfg.Store.Directory, ".last_refresh"))

			logger.Info("daemon started",
				zap.String("schedule", at),
				zap.String("timezone", timezone),
				zap.Strings("symbols", cfg.Symbols),
			)

			ctx := cmd.Context()

			refresh := func(day string) {
				start := time.Now()
				if err := runRefresh(ctx, cfg, cfg.Symbols, logger); err != nil {
					logger.Error("scheduled refresh failed",
						zap.String("date", day),
						zap.Error(err),
					)
					return
				}
				logger.Info("scheduled refresh succeeded",
					zap.String("date", day),
					zap.Duration("duration", time.Since(start)),
				)
				if err := tracker.markDone(day); err != nil {
					logger.Error("failed to update refresh tracker", zap.Error(err))
				}
			}

			if runOnStartup {
				day := scheduler.Today(time.Now())
				if !tracker.alreadyDone(day) {
					logger.Info("running startup refresh", zap.String("date", day))
					refresh(day)
				}
			}

			// Check once per minute
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					logger.Info("daemon shutting down")
					return nil

				case now := <-ticker.C:
					day := scheduler.Today(now)
					if tracker.alreadyDone(day) || !scheduler.ShouldRun(now) {
						continue
					}
					refresh(day)
				}
			}
		},
	}

	cmd.Flags().StringVar(&at, "at", "21:30", "daily refresh time (HH:MM)")
	cmd.Flags().StringVar(&timezone, "timezone", "America/New_York", "timezone for the schedule")
	cmd.Flags().BoolVar(&runOnStartup, "run-on-startup", false, "refresh immediately if today's run is missing")

	return cmd
}

// refreshTracker remembers the last refreshed date across restarts so a
// daemon bounce does not re-fetch the same day.
type refreshTracker struct {
	stateFile string
}

func newRefreshTracker(stateFile string) *refreshTracker {
	return &refreshTracker{stateFile: stateFile}
}

func (t *refreshTracker) alreadyDone(date string) bool {
	data, err := os.ReadFile(t.stateFile)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == date
}

func (t *refreshTracker) markDone(date string) error {
	if err := os.MkdirAll(filepath.Dir(t.stateFile), 0750); err != nil {
		return err
	}
	return os.WriteFile(t.stateFile, []byte(date+"\n"), 0600)
}
