package quant

import "math"

// Gamma returns the closed-form Black-Scholes gamma for a single contract.
//
// Degenerate inputs (non-positive spot, strike, volatility or time to expiry)
// yield 0: gamma is undefined there and callers treat absence of signal as
// zero exposure rather than an error.
func Gamma(spot, strike, tYears, riskFreeRate, impliedVol float64) float64 {
	if spot <= 0 || strike <= 0 || impliedVol <= 0 || tYears <= 0 {
		return 0
	}

	sqrtT := math.Sqrt(tYears)
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*impliedVol*impliedVol)*tYears) / (impliedVol * sqrtT)

	return normPDF(d1) / (spot * impliedVol * sqrtT)
}

// normPDF is the standard normal density in closed form.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
