package quant

import (
	"sync"
	"time"

	"github.com/quantsweep/sweepd/internal/chain"
)

// DefaultRiskFreeRate is used when the caller does not supply a rate.
const DefaultRiskFreeRate = 0.05

// Expiries settle at the 4pm ET close; anchoring time-to-expiry there keeps a
// same-day asOf positive without touching the epsilon floor.
const expiryCloseHourUTC = 21

// minTimeToExpiryYears floors T at one hour to avoid the σ√T singularity.
const minTimeToExpiryYears = 1.0 / (365.0 * 24.0)

// QuantMetrics is the full per-expiry analytics document. It is recomputed
// from scratch on every request, never mutated incrementally.
type QuantMetrics struct {
	Label            chain.ExpiryLabel `json:"label"`
	Date             string            `json:"date"`
	GammaFlip        float64           `json:"gammaFlip"`
	TotalGEX         float64           `json:"totalGex"`
	MaxPain          float64           `json:"maxPain"`
	PutCallRatios    PutCallRatios     `json:"putCallRatios"`
	VolatilitySkew   VolatilitySkew    `json:"volatilitySkew"`
	GEXByStrike      []StrikeGEX       `json:"gexByStrike"`
	CallWalls        []Wall            `json:"callWalls"`
	PutWalls         []Wall            `json:"putWalls"`
	DroppedContracts int               `json:"droppedContracts,omitempty"`
}

// Result is what ComputeAnalytics hands to the serving shell.
type Result struct {
	PerExpiry   []QuantMetrics    `json:"perExpiry"`
	CrossExpiry CrossExpiryLevels `json:"crossExpiry"`
}

// Options tune the computation without changing its semantics.
type Options struct {
	RiskFreeRate float64
	WallTopN     int
}

// ComputeAnalytics derives the full market-structure level set from the given
// expiry chains. Per-expiry metrics are independent and computed in parallel;
// the cross-expiry matcher runs once all of them exist.
//
// asOf is the only notion of "now": time-to-expiry derives from it and nothing
// here reads the system clock, so identical inputs produce identical output.
func ComputeAnalytics(sets []chain.ExpirySet, spot float64, asOf time.Time, opts Options) Result {
	if opts.RiskFreeRate == 0 {
		opts.RiskFreeRate = DefaultRiskFreeRate
	}
	if opts.WallTopN <= 0 {
		opts.WallTopN = DefaultWallCount
	}

	metrics := make([]QuantMetrics, len(sets))
	slices := make([]expirySlice, len(sets))

	var wg sync.WaitGroup
	for i, set := range sets {
		wg.Add(1)
		go func(i int, set chain.ExpirySet) {
			defer wg.Done()

			buckets, dropped := BuildBuckets(set.Contracts)
			t := TimeToExpiry(asOf, set.Date)

			curve, total, flip := GEXProfile(buckets, spot, t, opts.RiskFreeRate)
			callWalls, putWalls := Walls(buckets, spot, opts.WallTopN)

			metrics[i] = QuantMetrics{
				Label:            set.Label,
				Date:             set.Date.Format("2006-01-02"),
				GammaFlip:        flip,
				TotalGEX:         total,
				MaxPain:          round2(MaxPain(buckets, spot)),
				PutCallRatios:    Ratios(buckets, spot),
				VolatilitySkew:   Skew(buckets, spot),
				GEXByStrike:      curve,
				CallWalls:        callWalls,
				PutWalls:         putWalls,
				DroppedContracts: dropped,
			}
			slices[i] = expirySlice{label: set.Label, tYears: t, buckets: buckets}
		}(i, set)
	}
	wg.Wait()

	return Result{
		PerExpiry:   metrics,
		CrossExpiry: CrossExpiry(slices, spot, opts.RiskFreeRate),
	}
}

// TimeToExpiry converts an expiration date into year-fraction time from asOf,
// anchored at the market close and floored at a small positive epsilon so
// calculators never see zero or negative T.
func TimeToExpiry(asOf, expiry time.Time) float64 {
	settle := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), expiryCloseHourUTC, 0, 0, 0, time.UTC)

	years := settle.Sub(asOf).Hours() / (24 * 365)
	if years < minTimeToExpiryYears {
		return minTimeToExpiryYears
	}
	return years
}
