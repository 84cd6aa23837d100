package quant

import (
	"math"
	"testing"
)

func TestGEXProfileTotalsMatchLastCumulative(t *testing.T) {
	buckets := []StrikeBucket{
		{Strike: 95, CallOI: 100, PutOI: 300, CallIV: 0.25, PutIV: 0.3},
		{Strike: 100, CallOI: 500, PutOI: 500, CallIV: 0.22, PutIV: 0.24},
		{Strike: 105, CallOI: 400, PutOI: 50, CallIV: 0.2, PutIV: 0.21},
	}

	curve, total, _ := GEXProfile(buckets, 100, 0.05, 0.05)
	if len(curve) != 3 {
		t.Fatalf("len(curve) = %d, want 3", len(curve))
	}
	if total != curve[len(curve)-1].CumulativeGEX {
		t.Errorf("total = %v, last cumulative = %v", total, curve[len(curve)-1].CumulativeGEX)
	}
	for _, p := range curve {
		if math.IsNaN(p.GEX) || math.IsInf(p.GEX, 0) {
			t.Errorf("non-finite GEX at strike %v", p.Strike)
		}
	}
}

func TestGEXProfileFlipMidpoint(t *testing.T) {
	// Put-dominated low strike, call-dominated high strike: the cumulative
	// curve starts negative and crosses zero between the strikes.
	buckets := []StrikeBucket{
		{Strike: 95, PutOI: 1000, PutIV: 0.3},
		{Strike: 105, CallOI: 5000, CallIV: 0.3},
	}

	_, _, flip := GEXProfile(buckets, 100, 0.1, 0.05)
	if flip != 100.00 {
		t.Errorf("flip = %v, want midpoint 100.00", flip)
	}
}

func TestGEXProfileNoSignChangeFallsBackToSpot(t *testing.T) {
	buckets := []StrikeBucket{
		{Strike: 95, CallOI: 100, CallIV: 0.2},
		{Strike: 100, CallOI: 100, CallIV: 0.2},
		{Strike: 105, CallOI: 100, CallIV: 0.2},
	}

	spot := 101.37
	_, _, flip := GEXProfile(buckets, spot, 0.05, 0.05)
	if flip != spot {
		t.Errorf("flip = %v, want spot %v exactly", flip, spot)
	}
}

func TestGEXProfileEmpty(t *testing.T) {
	curve, total, flip := GEXProfile(nil, 450.25, 0.05, 0.05)
	if curve != nil || total != 0 || flip != 450.25 {
		t.Errorf("empty profile = %v, %v, %v", curve, total, flip)
	}
}

func TestGEXProfileSignConvention(t *testing.T) {
	callOnly := []StrikeBucket{{Strike: 100, CallOI: 100, CallIV: 0.2}}
	putOnly := []StrikeBucket{{Strike: 100, PutOI: 100, PutIV: 0.2}}

	_, callTotal, _ := GEXProfile(callOnly, 100, 0.1, 0.05)
	_, putTotal, _ := GEXProfile(putOnly, 100, 0.1, 0.05)

	if callTotal <= 0 {
		t.Errorf("call-only total = %v, want > 0", callTotal)
	}
	if putTotal >= 0 {
		t.Errorf("put-only total = %v, want < 0", putTotal)
	}
}
