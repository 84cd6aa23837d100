package quant

import (
	"math"
	"sort"

	"github.com/quantsweep/sweepd/internal/chain"
)

// Cross-expiry matching constants. Resonance uses a tighter tolerance
// than confluence.
const (
	resonanceTolerance  = 0.005
	confluenceTolerance = 0.01
	maxResonanceLevels  = 2
	maxConfluenceLevels = 5
)

// CrossExpiryLevel is a strike that coincides (within tolerance) across
// multiple expirations, with OI, volume and gamma aggregated over the
// participating expiries.
type CrossExpiryLevel struct {
	Strike  float64             `json:"strike"`
	Labels  []chain.ExpiryLabel `json:"labels"`
	CallOI  int                 `json:"callOi"`
	PutOI   int                 `json:"putOi"`
	CallVol int                 `json:"callVol"`
	PutVol  int                 `json:"putVol"`
	Gamma   float64             `json:"gamma"`
}

// CrossExpiryLevels holds the two cross-expiry agreement sets. The passes are
// independent and non-exclusive: a strike inside resonance tolerance may also
// appear under confluence.
type CrossExpiryLevels struct {
	Resonance  []CrossExpiryLevel `json:"resonance"`
	Confluence []CrossExpiryLevel `json:"confluence"`
}

// expirySlice is one expiry's bucket set with its time to expiry, the form
// the matcher consumes after per-expiry analytics have run.
type expirySlice struct {
	label   chain.ExpiryLabel
	tYears  float64
	buckets []StrikeBucket
}

// matchGroup accumulates strikes joined by single-linkage tolerance matching.
// The representative is the strike that opened the group; later strikes join
// by distance to it, groups never merge. Participation is tracked per expiry
// (by slice index) because labels need not be unique: the selector's fallback
// can emit two EXTRA expiries.
type matchGroup struct {
	rep     float64
	members map[int]chain.ExpiryLabel
	callOI  int
	putOI   int
	callVol int
	putVol  int
	gamma   float64
}

// CrossExpiry matches strikes across the given expiries and classifies the
// resulting groups. Resonance requires a group touching all three expiries
// (and therefore three inputs); confluence requires exactly two. Both lists
// rank by distance from spot ascending and are capped. Fewer than two
// expiries yield empty lists rather than an error.
func CrossExpiry(slices []expirySlice, spot, riskFreeRate float64) CrossExpiryLevels {
	var levels CrossExpiryLevels
	if len(slices) < 2 {
		return levels
	}

	if len(slices) == 3 {
		groups := matchStrikes(slices, spot, riskFreeRate, resonanceTolerance)
		levels.Resonance = selectLevels(groups, spot, 3, maxResonanceLevels)
	}

	groups := matchStrikes(slices, spot, riskFreeRate, confluenceTolerance)
	levels.Confluence = selectLevels(groups, spot, 2, maxConfluenceLevels)

	return levels
}

// matchStrikes runs one single-linkage grouping pass at the given tolerance.
// Strikes with no open interest carry no level information and are skipped.
func matchStrikes(slices []expirySlice, spot, riskFreeRate, tolerance float64) []*matchGroup {
	var groups []*matchGroup

	for idx, s := range slices {
		for _, b := range s.buckets {
			if b.totalOI() == 0 {
				continue
			}

			var group *matchGroup
			for _, g := range groups {
				if withinTolerance(b.Strike, g.rep, tolerance) {
					group = g
					break
				}
			}
			if group == nil {
				group = &matchGroup{rep: b.Strike, members: make(map[int]chain.ExpiryLabel)}
				groups = append(groups, group)
			}

			group.members[idx] = s.label
			group.callOI += b.CallOI
			group.putOI += b.PutOI
			group.callVol += b.CallVol
			group.putVol += b.PutVol
			group.gamma += Gamma(spot, b.Strike, s.tYears, riskFreeRate, b.CallIV)*float64(b.CallOI) +
				Gamma(spot, b.Strike, s.tYears, riskFreeRate, b.PutIV)*float64(b.PutOI)
		}
	}

	return groups
}

// withinTolerance implements the matching rule |a-b| / max(a,b) <= tolerance.
func withinTolerance(a, b, tolerance float64) bool {
	max := math.Max(a, b)
	if max <= 0 {
		return false
	}
	return math.Abs(a-b)/max <= tolerance
}

// selectLevels keeps groups touching exactly wantExpiries expiries, ranked by
// distance from spot ascending (strike ascending on ties for determinism).
func selectLevels(groups []*matchGroup, spot float64, wantExpiries, limit int) []CrossExpiryLevel {
	var matched []*matchGroup
	for _, g := range groups {
		if len(g.members) == wantExpiries {
			matched = append(matched, g)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		di := math.Abs(matched[i].rep - spot)
		dj := math.Abs(matched[j].rep - spot)
		if di != dj {
			return di < dj
		}
		return matched[i].rep < matched[j].rep
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}

	levels := make([]CrossExpiryLevel, 0, len(matched))
	for _, g := range matched {
		labels := make([]chain.ExpiryLabel, 0, len(g.members))
		for _, l := range g.members {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

		levels = append(levels, CrossExpiryLevel{
			Strike:  round2(g.rep),
			Labels:  labels,
			CallOI:  g.callOI,
			PutOI:   g.putOI,
			CallVol: g.callVol,
			PutVol:  g.putVol,
			Gamma:   round6(g.gamma),
		})
	}

	return levels
}
