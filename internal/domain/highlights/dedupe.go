package highlights

import (
	"math"
	"sort"

	"github.com/forPelevin/shortsfinder/internal/types"
)

// SortCandidates orders by score desc, then start time asc. Equal keys keep
// their input order.
func SortCandidates(cs []types.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return cs[i].StartTime < cs[j].StartTime
	})
}

// OverlapRatio is the intersection of a and b over the shorter duration.
// A zero shorter duration is treated as one second.
func OverlapRatio(a, b types.Candidate) float64 {
	inter := math.Max(0, math.Min(a.EndTime, b.EndTime)-math.Max(a.StartTime, b.StartTime))
	shorter := math.Min(a.Duration, b.Duration)
	if shorter == 0 {
		shorter = 1
	}
	return inter / shorter
}

// Dedupe walks ranked candidates and keeps each one that does not overlap an
// already kept candidate by more than threshold. At most maxKept survive.
func Dedupe(ranked []types.Candidate, threshold float64, maxKept int) []types.Candidate {
	if maxKept <= 0 {
		maxKept = DefaultMaxKept
	}
	kept := make([]types.Candidate, 0, min(len(ranked), maxKept))
	for _, c := range ranked {
		if len(kept) >= maxKept {
			break
		}
		if overlapsAny(c, kept, threshold) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func overlapsAny(c types.Candidate, kept []types.Candidate, threshold float64) bool {
	for _, k := range kept {
		if OverlapRatio(c, k) > threshold {
			return true
		}
	}
	return false
}
