package quant

// MaxPain returns the strike minimizing the aggregate option payoff at
// expiration. Candidates are exactly the observed strikes; ties resolve to
// the lowest strike because buckets are iterated ascending and only a
// strictly smaller payoff replaces the incumbent. An empty bucket set
// returns spot unchanged.
//
// The search is intentionally O(n²) over distinct strikes (typically ≤ 200);
// approximations would change the result.
func MaxPain(buckets []StrikeBucket, spot float64) float64 {
	if len(buckets) == 0 {
		return spot
	}

	best := buckets[0].Strike
	bestPayoff := payoffAt(buckets, buckets[0].Strike)

	for _, candidate := range buckets[1:] {
		if p := payoffAt(buckets, candidate.Strike); p < bestPayoff {
			best = candidate.Strike
			bestPayoff = p
		}
	}

	return best
}

// payoffAt is the total intrinsic value paid out across the chain were the
// underlying to settle at s.
func payoffAt(buckets []StrikeBucket, s float64) float64 {
	total := 0.0
	for _, b := range buckets {
		if s > b.Strike {
			total += (s - b.Strike) * float64(b.CallOI) * contractMultiplier
		}
		if b.Strike > s {
			total += (b.Strike - s) * float64(b.PutOI) * contractMultiplier
		}
	}
	return total
}
