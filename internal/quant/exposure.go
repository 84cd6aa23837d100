package quant

// StrikeGEX is one point of the dealer gamma-exposure curve, in billions.
type StrikeGEX struct {
	Strike        float64 `json:"strike"`
	GEX           float64 `json:"gex"`
	CumulativeGEX float64 `json:"cumulativeGex"`
}

// Contracts control 100 shares; the GEX convention scales by a 1% spot move
// and reports in billions.
const (
	contractMultiplier = 100.0
	spotMoveFraction   = 0.01
	gexBillions        = 1e9
)

// GEXProfile aggregates per-strike gamma exposure over ascending strikes.
// Calls contribute positive dealer gamma, puts negative; this sign convention
// is fixed, not configurable.
//
// Returns the curve, totalGEX (the final cumulative value) and the gamma-flip
// strike: the midpoint of the two strikes bracketing the first strict sign
// change of the cumulative curve, or spot when the curve never changes sign.
func GEXProfile(buckets []StrikeBucket, spot, tYears, riskFreeRate float64) ([]StrikeGEX, float64, float64) {
	if len(buckets) == 0 {
		return nil, 0, spot
	}

	curve := make([]StrikeGEX, len(buckets))
	cumulative := 0.0
	flip := spot
	flipFound := false

	prev := 0.0
	for i, b := range buckets {
		callGamma := Gamma(spot, b.Strike, tYears, riskFreeRate, b.CallIV)
		putGamma := Gamma(spot, b.Strike, tYears, riskFreeRate, b.PutIV)

		notional := contractMultiplier * spot * spot * spotMoveFraction
		gex := (callGamma*float64(b.CallOI) - putGamma*float64(b.PutOI)) * notional / gexBillions

		cumulative += gex

		if i > 0 && !flipFound && prev*cumulative < 0 {
			flip = round2((buckets[i-1].Strike + b.Strike) / 2)
			flipFound = true
		}
		prev = cumulative

		curve[i] = StrikeGEX{
			Strike:        round2(b.Strike),
			GEX:           round6(gex),
			CumulativeGEX: round6(cumulative),
		}
	}

	total := curve[len(curve)-1].CumulativeGEX

	return curve, total, flip
}
