package config

import (
	"fmt"
	"strings"
)

// ValidationErrors collects every invalid field so a bad config reports all
// its problems at once instead of one per run.
type ValidationErrors struct {
	Problems []string
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Provider.APIKey == "" {
		errs.add("provider.api_key is required (set SWEEPD_API_KEY)")
	}
	if c.Provider.Workers < 1 {
		errs.add("provider.workers must be >= 1, got %d", c.Provider.Workers)
	}
	if c.Provider.RatePerSecond < 1 {
		errs.add("provider.rate_per_second must be >= 1, got %d", c.Provider.RatePerSecond)
	}
	if len(c.Symbols) == 0 {
		errs.add("symbols must not be empty")
	}
	for _, s := range c.Symbols {
		if s == "" {
			errs.add("symbols must not contain empty entries")
			break
		}
	}
	if c.Analytics.RiskFreeRate < 0 || c.Analytics.RiskFreeRate > 0.5 {
		errs.add("analytics.risk_free_rate must be within [0, 0.5], got %g", c.Analytics.RiskFreeRate)
	}
	if c.Analytics.WallTopN < 1 {
		errs.add("analytics.wall_top_n must be >= 1, got %d", c.Analytics.WallTopN)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.add("server.port must be a valid port, got %d", c.Server.Port)
	}
	if c.Store.Directory == "" {
		errs.add("store.directory must not be empty")
	}
	if c.Notify.Enabled && c.Notify.Topic == "" {
		errs.add("notify.topic is required when notify is enabled")
	}

	if len(errs.Problems) > 0 {
		return errs
	}
	return nil
}
