package quant

import "math"

// Output precision is part of the contract with downstream consumers:
// 2 decimals for price-like values, 4 for IV and ratios, 6 for GEX in
// billions. Applying it when metrics are assembled keeps repeated runs
// byte-identical after JSON encoding.

func round2(v float64) float64 { return roundTo(v, 100) }
func round4(v float64) float64 { return roundTo(v, 10000) }
func round6(v float64) float64 { return roundTo(v, 1000000) }

func roundTo(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
