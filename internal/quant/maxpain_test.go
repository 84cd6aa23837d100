package quant

import "testing"

func TestMaxPainSymmetricChain(t *testing.T) {
	// Regression: equal OI mirrored around spot pins max pain at the
	// middle strike, where both wings expire worthless.
	buckets := []StrikeBucket{
		{Strike: 95, CallOI: 10, PutOI: 10},
		{Strike: 100, CallOI: 10, PutOI: 10},
		{Strike: 105, CallOI: 10, PutOI: 10},
	}

	if got := MaxPain(buckets, 100); got != 100 {
		t.Errorf("MaxPain = %v, want 100", got)
	}
}

func TestMaxPainLowestStrikeWinsTies(t *testing.T) {
	// Only OTM single-sided books: every candidate has payoff 0, so the
	// first strike iterated ascending must win.
	buckets := []StrikeBucket{
		{Strike: 95, PutOI: 10},
		{Strike: 100},
		{Strike: 105, CallOI: 10},
	}

	if got := MaxPain(buckets, 100); got != 95 {
		t.Errorf("MaxPain = %v, want 95", got)
	}
}

func TestMaxPainEmptyReturnsSpot(t *testing.T) {
	if got := MaxPain(nil, 432.1); got != 432.1 {
		t.Errorf("MaxPain = %v, want spot 432.1", got)
	}
}

func TestMaxPainHeavyPutBookPullsSettlementUp(t *testing.T) {
	buckets := []StrikeBucket{
		{Strike: 95, CallOI: 10},
		{Strike: 105, PutOI: 500},
	}

	// Settling at 95 pays the 105 puts 10 points on 500 contracts;
	// settling at 105 pays only the small call book.
	if got := MaxPain(buckets, 100); got != 105 {
		t.Errorf("MaxPain = %v, want 105", got)
	}
}
