package quant

import "math"

// PutCallRatios are the put/call sentiment variants over one expiry.
// Every ratio defaults to 0.0 when its denominator is 0.
type PutCallRatios struct {
	OIBased     float64 `json:"oiBased"`
	VolumeBased float64 `json:"volumeBased"`
	Weighted    float64 `json:"weighted"`
	// DeltaAdjusted approximates directional exposure with a moneyness
	// proxy (min(1, OI/1000) below/above spot) instead of true option
	// delta. An explicit simplification.
	DeltaAdjusted float64 `json:"deltaAdjusted"`
}

// VolatilitySkew compares OTM put IV against OTM call IV.
type VolatilitySkew struct {
	PutIVAvg  float64 `json:"putIvAvg"`
	CallIVAvg float64 `json:"callIvAvg"`
	SkewRatio float64 `json:"skewRatio"`
	Shape     string  `json:"shape"`
	Bias      string  `json:"bias"`
}

// Fixed sentiment constants, preserved for behavioral compatibility with
// existing consumers rather than re-derived.
const (
	otmPutBound      = 0.95 // strike < bound*spot is an OTM put
	otmCallBound     = 1.05 // strike > bound*spot is an OTM call
	smirkThreshold   = 1.2
	reverseThreshold = 0.9
	oiProxyScale     = 1000.0
)

// Ratios computes the put/call ratio variants over the bucket set.
func Ratios(buckets []StrikeBucket, spot float64) PutCallRatios {
	var (
		callOI, putOI             int
		callVol, putVol           int
		callWeighted, putWeighted float64
		callProxy, putProxy       float64
	)

	for _, b := range buckets {
		callOI += b.CallOI
		putOI += b.PutOI
		callVol += b.CallVol
		putVol += b.PutVol

		callWeighted += float64(b.CallOI) * weightOf(b.CallVol)
		putWeighted += float64(b.PutOI) * weightOf(b.PutVol)

		if b.Strike < spot {
			putProxy += math.Min(1, float64(b.PutOI)/oiProxyScale)
		}
		if b.Strike > spot {
			callProxy += math.Min(1, float64(b.CallOI)/oiProxyScale)
		}
	}

	return PutCallRatios{
		OIBased:       round4(safeRatio(float64(putOI), float64(callOI))),
		VolumeBased:   round4(safeRatio(float64(putVol), float64(callVol))),
		Weighted:      round4(safeRatio(putWeighted, callWeighted)),
		DeltaAdjusted: round4(safeRatio(putProxy, callProxy)),
	}
}

// weightOf treats missing volume as a neutral weight of 1.
func weightOf(vol int) float64 {
	if vol <= 0 {
		return 1
	}
	return float64(vol)
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Skew classifies the volatility smile: average OTM put IV against average
// OTM call IV. A ratio above 1.2 is a smirk (bearish positioning), below 0.9
// a reverse smirk (bullish), anything between is flat. Strikes with unknown
// IV (0, the sentinel) carry no signal and are excluded from the averages.
func Skew(buckets []StrikeBucket, spot float64) VolatilitySkew {
	var (
		putSum, callSum float64
		putCnt, callCnt int
	)

	for _, b := range buckets {
		if b.Strike < otmPutBound*spot && b.PutIV > 0 {
			putSum += b.PutIV
			putCnt++
		}
		if b.Strike > otmCallBound*spot && b.CallIV > 0 {
			callSum += b.CallIV
			callCnt++
		}
	}

	var putAvg, callAvg float64
	if putCnt > 0 {
		putAvg = putSum / float64(putCnt)
	}
	if callCnt > 0 {
		callAvg = callSum / float64(callCnt)
	}

	ratio := 1.0
	if callAvg > 0 {
		ratio = putAvg / callAvg
	}

	shape, bias := "flat", "neutral"
	switch {
	case ratio > smirkThreshold:
		shape, bias = "smirk", "bearish"
	case ratio < reverseThreshold:
		shape, bias = "reverse_smirk", "bullish"
	}

	return VolatilitySkew{
		PutIVAvg:  round4(putAvg),
		CallIVAvg: round4(callAvg),
		SkewRatio: round4(ratio),
		Shape:     shape,
		Bias:      bias,
	}
}
