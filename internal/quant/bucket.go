package quant

import (
	"sort"

	"github.com/quantsweep/sweepd/internal/chain"
)

// StrikeBucket aggregates both sides of one unique strike within a single
// expiry. Grouping uses exact strike equality; tolerance matching only
// happens across expiries, never within one.
type StrikeBucket struct {
	Strike  float64
	CallOI  int
	PutOI   int
	CallVol int
	PutVol  int
	CallIV  float64
	PutIV   float64
}

type bucketAccum struct {
	bucket    StrikeBucket
	callIVSum float64
	callIVCnt int
	putIVSum  float64
	putIVCnt  int
}

// BuildBuckets groups contracts by strike into ascending StrikeBuckets.
// Structurally invalid contracts (non-positive strike, unknown side,
// negative open interest, volume or IV) are dropped individually; the
// returned count lets the shell log them as a data-quality issue without
// failing the computation.
func BuildBuckets(contracts []chain.Contract) ([]StrikeBucket, int) {
	accums := make(map[float64]*bucketAccum)
	dropped := 0

	for _, c := range contracts {
		if !validContract(c) {
			dropped++
			continue
		}

		acc, ok := accums[c.Strike]
		if !ok {
			acc = &bucketAccum{bucket: StrikeBucket{Strike: c.Strike}}
			accums[c.Strike] = acc
		}

		switch c.Side {
		case chain.SideCall:
			acc.bucket.CallOI += c.OpenInterest
			acc.bucket.CallVol += c.Volume
			if c.ImpliedVol > 0 {
				acc.callIVSum += c.ImpliedVol
				acc.callIVCnt++
			}
		case chain.SidePut:
			acc.bucket.PutOI += c.OpenInterest
			acc.bucket.PutVol += c.Volume
			if c.ImpliedVol > 0 {
				acc.putIVSum += c.ImpliedVol
				acc.putIVCnt++
			}
		}
	}

	buckets := make([]StrikeBucket, 0, len(accums))
	for _, acc := range accums {
		if acc.callIVCnt > 0 {
			acc.bucket.CallIV = acc.callIVSum / float64(acc.callIVCnt)
		}
		if acc.putIVCnt > 0 {
			acc.bucket.PutIV = acc.putIVSum / float64(acc.putIVCnt)
		}
		buckets = append(buckets, acc.bucket)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Strike < buckets[j].Strike
	})

	return buckets, dropped
}

func validContract(c chain.Contract) bool {
	if c.Strike <= 0 {
		return false
	}
	if c.Side != chain.SideCall && c.Side != chain.SidePut {
		return false
	}
	if c.OpenInterest < 0 || c.Volume < 0 || c.ImpliedVol < 0 {
		return false
	}
	return true
}

// totalOI is the combined open interest across both sides.
func (b StrikeBucket) totalOI() int {
	return b.CallOI + b.PutOI
}
