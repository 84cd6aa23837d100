package quant

import "sort"

// Wall is a strike with locally dominant open interest, read as support
// (puts below spot) or resistance (calls above spot).
type Wall struct {
	Strike       float64 `json:"strike"`
	OpenInterest int     `json:"oi"`
}

// DefaultWallCount is the conventional number of walls per side.
const DefaultWallCount = 3

// Walls selects the top-N open-interest strikes per side: call walls strictly
// above spot, put walls strictly below. Strikes equal to spot participate in
// neither set. Sorting is (OI desc, strike asc) so the result is independent
// of input contract ordering.
func Walls(buckets []StrikeBucket, spot float64, topN int) (callWalls, putWalls []Wall) {
	if topN <= 0 {
		topN = DefaultWallCount
	}

	for _, b := range buckets {
		if b.Strike > spot && b.CallOI > 0 {
			callWalls = append(callWalls, Wall{Strike: round2(b.Strike), OpenInterest: b.CallOI})
		}
		if b.Strike < spot && b.PutOI > 0 {
			putWalls = append(putWalls, Wall{Strike: round2(b.Strike), OpenInterest: b.PutOI})
		}
	}

	callWalls = topWalls(callWalls, topN)
	putWalls = topWalls(putWalls, topN)
	return callWalls, putWalls
}

func topWalls(walls []Wall, n int) []Wall {
	sort.Slice(walls, func(i, j int) bool {
		if walls[i].OpenInterest != walls[j].OpenInterest {
			return walls[i].OpenInterest > walls[j].OpenInterest
		}
		return walls[i].Strike < walls[j].Strike
	})
	if len(walls) > n {
		walls = walls[:n]
	}
	return walls
}
