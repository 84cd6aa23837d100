package quant

import (
	"time"

	"github.com/quantsweep/sweepd/internal/chain"
)

// SelectedExpiry pairs a bucket label with its expiration date.
type SelectedExpiry struct {
	Label chain.ExpiryLabel
	Date  time.Time
}

// SelectExpiries picks up to three dates representing the 0DTE, WEEKLY and
// MONTHLY buckets from the available expirations, which must be pre-sorted
// ascending. Each date is used at most once:
//
//  1. 0DTE is always the first date.
//  2. WEEKLY is the first later Friday that is not the month's third Friday.
//  3. MONTHLY is the first unused third Friday.
//  4. If no weekly Friday exists, the first unused plain Friday is inserted
//     as WEEKLY right after 0DTE.
//  5. Remaining slots fill with the earliest unused dates as EXTRA.
func SelectExpiries(dates []time.Time) []SelectedExpiry {
	if len(dates) == 0 {
		return nil
	}

	selected := []SelectedExpiry{{Label: chain.LabelZeroDTE, Date: dates[0]}}
	used := map[time.Time]bool{dates[0]: true}

	for _, d := range dates[1:] {
		if !used[d] && isWeeklyFriday(d) {
			selected = append(selected, SelectedExpiry{Label: chain.LabelWeekly, Date: d})
			used[d] = true
			break
		}
	}

	for _, d := range dates {
		if !used[d] && isThirdFriday(d) {
			selected = append(selected, SelectedExpiry{Label: chain.LabelMonthly, Date: d})
			used[d] = true
			break
		}
	}

	if !hasLabel(selected, chain.LabelWeekly) {
		for _, d := range dates {
			if !used[d] && d.Weekday() == time.Friday {
				weekly := SelectedExpiry{Label: chain.LabelWeekly, Date: d}
				selected = append(selected[:1], append([]SelectedExpiry{weekly}, selected[1:]...)...)
				used[d] = true
				break
			}
		}
	}

	for _, d := range dates {
		if len(selected) >= 3 {
			break
		}
		if !used[d] {
			selected = append(selected, SelectedExpiry{Label: chain.LabelExtra, Date: d})
			used[d] = true
		}
	}

	return selected
}

// ExpirySets runs SelectExpiries and wraps the result as contract-less
// chain.ExpirySet values, the shape the fetcher consumes.
func ExpirySets(dates []time.Time) []chain.ExpirySet {
	selected := SelectExpiries(dates)
	sets := make([]chain.ExpirySet, 0, len(selected))
	for _, s := range selected {
		sets = append(sets, chain.ExpirySet{Label: s.Label, Date: s.Date})
	}
	return sets
}

// isThirdFriday reports whether d is a standard monthly expiration: a Friday
// whose day of month falls in [15, 21].
func isThirdFriday(d time.Time) bool {
	return d.Weekday() == time.Friday && d.Day() >= 15 && d.Day() <= 21
}

func isWeeklyFriday(d time.Time) bool {
	return d.Weekday() == time.Friday && !isThirdFriday(d)
}

func hasLabel(selected []SelectedExpiry, label chain.ExpiryLabel) bool {
	for _, s := range selected {
		if s.Label == label {
			return true
		}
	}
	return false
}
