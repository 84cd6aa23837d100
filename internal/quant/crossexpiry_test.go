package quant

import (
	"testing"

	"github.com/quantsweep/sweepd/internal/chain"
)

func threeExpirySlices(strike0dte, strikeWeekly, strikeMonthly float64, extra ...StrikeBucket) []expirySlice {
	weekly := []StrikeBucket{{Strike: strikeWeekly, CallOI: 200, CallIV: 0.25}}
	weekly = append(weekly, extra...)

	return []expirySlice{
		{label: chain.LabelZeroDTE, tYears: 0.002, buckets: []StrikeBucket{
			{Strike: strike0dte, CallOI: 100, PutOI: 50, CallIV: 0.3, PutIV: 0.35},
		}},
		{label: chain.LabelWeekly, tYears: 0.02, buckets: weekly},
		{label: chain.LabelMonthly, tYears: 0.08, buckets: []StrikeBucket{
			{Strike: strikeMonthly, PutOI: 300, PutIV: 0.28},
		}},
	}
}

func TestCrossExpiryResonanceAndConfluence(t *testing.T) {
	// Strike 500 appears in all three expiries (within 0.5%); strike 520
	// appears in only two of three.
	slices := threeExpirySlices(500.00, 501.00, 499.50,
		StrikeBucket{Strike: 520, CallOI: 40, CallIV: 0.2})
	slices[0].buckets = append(slices[0].buckets,
		StrikeBucket{Strike: 520, CallOI: 60, CallIV: 0.22})

	levels := CrossExpiry(slices, 505, DefaultRiskFreeRate)

	if len(levels.Resonance) != 1 {
		t.Fatalf("resonance = %v, want exactly one level", levels.Resonance)
	}
	r := levels.Resonance[0]
	if r.Strike != 500.00 {
		t.Errorf("resonance strike = %v, want 500.00", r.Strike)
	}
	if len(r.Labels) != 3 {
		t.Errorf("resonance labels = %v, want all three", r.Labels)
	}
	if r.CallOI != 300 || r.PutOI != 350 {
		t.Errorf("resonance OI = %d/%d, want 300/350", r.CallOI, r.PutOI)
	}
	if r.Gamma <= 0 {
		t.Errorf("resonance gamma = %v, want > 0", r.Gamma)
	}

	var foundPair bool
	for _, c := range levels.Confluence {
		if c.Strike == 520 {
			foundPair = true
			if len(c.Labels) != 2 {
				t.Errorf("confluence labels = %v, want exactly two", c.Labels)
			}
		}
		if c.Strike == 500.00 && len(c.Labels) == 3 {
			t.Errorf("three-expiry group leaked into confluence: %+v", c)
		}
	}
	if !foundPair {
		t.Errorf("confluence = %v, want level at 520", levels.Confluence)
	}
}

func TestCrossExpiryPassesAreIndependent(t *testing.T) {
	// A level inside resonance tolerance in only two expiries still shows
	// up in confluence; the passes do not exclude each other.
	slices := []expirySlice{
		{label: chain.LabelZeroDTE, tYears: 0.002, buckets: []StrikeBucket{
			{Strike: 450, CallOI: 10, CallIV: 0.3},
		}},
		{label: chain.LabelWeekly, tYears: 0.02, buckets: []StrikeBucket{
			{Strike: 450.5, CallOI: 10, CallIV: 0.3},
		}},
	}

	levels := CrossExpiry(slices, 452, DefaultRiskFreeRate)
	if len(levels.Resonance) != 0 {
		t.Errorf("resonance with two expiries = %v, want empty", levels.Resonance)
	}
	if len(levels.Confluence) != 1 {
		t.Errorf("confluence = %v, want one level", levels.Confluence)
	}
}

func TestCrossExpiryInsufficientExpiries(t *testing.T) {
	single := []expirySlice{
		{label: chain.LabelZeroDTE, buckets: []StrikeBucket{{Strike: 100, CallOI: 1}}},
	}

	levels := CrossExpiry(single, 100, DefaultRiskFreeRate)
	if len(levels.Resonance) != 0 || len(levels.Confluence) != 0 {
		t.Errorf("levels = %+v, want empty for a single expiry", levels)
	}
}

func TestCrossExpiryRankedByDistanceFromSpotAndCapped(t *testing.T) {
	mk := func(strikes ...float64) []StrikeBucket {
		var b []StrikeBucket
		for _, s := range strikes {
			b = append(b, StrikeBucket{Strike: s, CallOI: 10, CallIV: 0.2})
		}
		return b
	}

	// Seven two-expiry levels; only the five nearest to spot survive.
	strikes := []float64{400, 420, 440, 460, 480, 520, 540}
	slices := []expirySlice{
		{label: chain.LabelZeroDTE, tYears: 0.002, buckets: mk(strikes...)},
		{label: chain.LabelWeekly, tYears: 0.02, buckets: mk(strikes...)},
	}

	levels := CrossExpiry(slices, 500, DefaultRiskFreeRate)
	if len(levels.Confluence) != maxConfluenceLevels {
		t.Fatalf("confluence count = %d, want %d", len(levels.Confluence), maxConfluenceLevels)
	}
	// 480 and 520 tie at distance 20; the lower strike ranks first.
	if levels.Confluence[0].Strike != 480 || levels.Confluence[1].Strike != 520 {
		t.Errorf("nearest levels = %v, %v, want 480 then 520",
			levels.Confluence[0].Strike, levels.Confluence[1].Strike)
	}
	for _, c := range levels.Confluence {
		if c.Strike == 400 || c.Strike == 420 {
			t.Errorf("far strike %v should have been cut by the cap", c.Strike)
		}
	}
}

func TestCrossExpiryCountsDuplicateLabelsSeparately(t *testing.T) {
	// The selector's fallback can hand the matcher two EXTRA expiries.
	// They are distinct expirations, so a strike present in all three
	// slices is resonance, not two-expiry confluence.
	slices := []expirySlice{
		{label: chain.LabelZeroDTE, tYears: 0.002, buckets: []StrikeBucket{
			{Strike: 500, CallOI: 100, CallIV: 0.3},
		}},
		{label: chain.LabelExtra, tYears: 0.02, buckets: []StrikeBucket{
			{Strike: 500, CallOI: 200, CallIV: 0.25},
		}},
		{label: chain.LabelExtra, tYears: 0.08, buckets: []StrikeBucket{
			{Strike: 500, PutOI: 300, PutIV: 0.28},
		}},
	}

	levels := CrossExpiry(slices, 505, DefaultRiskFreeRate)

	if len(levels.Resonance) != 1 {
		t.Fatalf("resonance = %v, want exactly one level", levels.Resonance)
	}
	r := levels.Resonance[0]
	if len(r.Labels) != 3 {
		t.Errorf("resonance labels = %v, want one per expiry", r.Labels)
	}
	if r.CallOI != 300 || r.PutOI != 300 {
		t.Errorf("resonance OI = %d/%d, want 300/300", r.CallOI, r.PutOI)
	}

	for _, c := range levels.Confluence {
		if c.Strike == 500 {
			t.Errorf("three-expiry group misclassified as confluence: %+v", c)
		}
	}
}

func TestCrossExpirySkipsZeroOpenInterest(t *testing.T) {
	slices := []expirySlice{
		{label: chain.LabelZeroDTE, tYears: 0.002, buckets: []StrikeBucket{
			{Strike: 100, CallVol: 50}, // volume but no OI
		}},
		{label: chain.LabelWeekly, tYears: 0.02, buckets: []StrikeBucket{
			{Strike: 100, CallVol: 80},
		}},
	}

	levels := CrossExpiry(slices, 100, DefaultRiskFreeRate)
	if len(levels.Confluence) != 0 {
		t.Errorf("confluence = %v, want empty for zero-OI strikes", levels.Confluence)
	}
}
