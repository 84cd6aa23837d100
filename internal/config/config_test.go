package config

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLoadWithAPIKey(t *testing.T) {
	_ = os.Setenv("SWEEPD_API_KEY", "test-key-123")
	defer func() { _ = os.Unsetenv("SWEEPD_API_KEY") }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected config to load with API key, got error: %v", err)
	}

	if cfg.Provider.APIKey != "test-key-123" {
		t.Errorf("expected API key 'test-key-123', got '%s'", cfg.Provider.APIKey)
	}

	if cfg.Provider.BaseURL != "https://api.sweepdata.io" {
		t.Errorf("expected default base URL, got '%s'", cfg.Provider.BaseURL)
	}

	if len(cfg.Symbols) != 4 || cfg.Symbols[0] != "SPY" {
		t.Errorf("expected default symbols, got %v", cfg.Symbols)
	}

	if cfg.Mapping["SPX"] != "^SPX" {
		t.Errorf("expected SPX mapped to ^SPX, got %v", cfg.Mapping)
	}

	if cfg.Analytics.RiskFreeRate != 0.05 {
		t.Errorf("expected default risk-free rate 0.05, got %v", cfg.Analytics.RiskFreeRate)
	}
}

func TestLoadWithoutAPIKey(t *testing.T) {
	_ = os.Unsetenv("SWEEPD_API_KEY")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{
		Provider:  ProviderConfig{APIKey: "", Workers: 0, RatePerSecond: 0},
		Symbols:   nil,
		Analytics: AnalyticsConfig{RiskFreeRate: 2.0, WallTopN: 0},
		Server:    ServerConfig{Port: 0},
		Store:     StoreConfig{},
		Notify:    NotifyConfig{Enabled: true},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs.Problems) != 9 {
		t.Errorf("expected 9 collected problems, got %d: %v", len(verrs.Problems), verrs.Problems)
	}
	if !strings.Contains(err.Error(), "SWEEPD_API_KEY") {
		t.Errorf("error should name the env var: %s", err.Error())
	}
}

func TestStreamIntervalFallback(t *testing.T) {
	s := ServerConfig{StreamInterval: "nonsense"}
	if got := s.StreamIntervalDuration(); got.Seconds() != 5 {
		t.Errorf("malformed interval should fall back to 5s, got %v", got)
	}

	s.StreamInterval = "2s"
	if got := s.StreamIntervalDuration(); got.Seconds() != 2 {
		t.Errorf("interval = %v, want 2s", got)
	}
}
