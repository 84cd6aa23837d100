package quant

import (
	"math"
	"testing"
)

func TestGammaNonNegativeAndFinite(t *testing.T) {
	spots := []float64{50, 100, 450, 5000}
	strikes := []float64{40, 100, 455, 5100}
	times := []float64{minTimeToExpiryYears, 0.01, 0.25, 1, 2}
	vols := []float64{0.01, 0.1, 0.3, 0.8, 2.5}

	for _, s := range spots {
		for _, k := range strikes {
			for _, tt := range times {
				for _, v := range vols {
					g := Gamma(s, k, tt, 0.05, v)
					if g < 0 {
						t.Errorf("Gamma(%v,%v,%v,%v) = %v, want >= 0", s, k, tt, v, g)
					}
					if math.IsNaN(g) || math.IsInf(g, 0) {
						t.Errorf("Gamma(%v,%v,%v,%v) = %v, want finite", s, k, tt, v, g)
					}
				}
			}
		}
	}
}

func TestGammaDegenerateInputs(t *testing.T) {
	tests := []struct {
		name                      string
		spot, strike, tYears, vol float64
	}{
		{"zero spot", 0, 100, 0.1, 0.3},
		{"negative spot", -100, 100, 0.1, 0.3},
		{"zero strike", 100, 0, 0.1, 0.3},
		{"negative strike", 100, -100, 0.1, 0.3},
		{"zero vol", 100, 100, 0.1, 0},
		{"negative vol", 100, 100, 0.1, -0.3},
		{"zero time", 100, 100, 0, 0.3},
		{"negative time", 100, 100, -0.1, 0.3},
	}

	for _, tc := range tests {
		if g := Gamma(tc.spot, tc.strike, tc.tYears, 0.05, tc.vol); g != 0 {
			t.Errorf("%s: Gamma = %v, want 0", tc.name, g)
		}
	}
}

func TestGammaVanishesAsVolShrinks(t *testing.T) {
	// OTM gamma tends toward 0 as sigma -> 0+, without blowing up.
	prev := math.Inf(1)
	for _, v := range []float64{0.5, 0.1, 0.01, 0.001} {
		g := Gamma(100, 120, 0.05, 0.05, v)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			t.Fatalf("Gamma at vol %v = %v, want finite", v, g)
		}
		if g > prev {
			t.Errorf("Gamma at vol %v = %v, want <= %v", v, g, prev)
		}
		prev = g
	}
	if prev > 1e-10 {
		t.Errorf("OTM gamma at vol 0.001 = %v, want near 0", prev)
	}
}

func TestGammaATMValue(t *testing.T) {
	// At the money, d1 is small and gamma ~ phi(d1)/(S*sigma*sqrt(T)).
	g := Gamma(100, 100, 1, 0, 0.2)
	d1 := 0.5 * 0.2 // (r + sigma^2/2)*T / (sigma*sqrt(T)) with r=0, T=1
	want := math.Exp(-0.5*d1*d1) / math.Sqrt(2*math.Pi) / (100 * 0.2)
	if math.Abs(g-want) > 1e-12 {
		t.Errorf("Gamma = %v, want %v", g, want)
	}
}
