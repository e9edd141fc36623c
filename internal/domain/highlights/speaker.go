package highlights

import "github.com/forPelevin/shortsfinder/internal/types"

const (
	UnknownSpeaker  = "Unknown"
	MultipleSpeaker = "Multiple"

	dominantShare = 0.6
)

// DominantSpeaker returns the label held by at least 60% of segs, or
// "Multiple". Blank labels count as "Unknown"; ties go to the label seen first.
func DominantSpeaker(segs []types.Segment) string {
	type tally struct {
		label string
		n     int
	}
	var order []tally
	idx := make(map[string]int, 4)
	for _, s := range segs {
		sp := s.Speaker
		if sp == "" {
			sp = UnknownSpeaker
		}
		k, ok := idx[sp]
		if !ok {
			k = len(order)
			idx[sp] = k
			order = append(order, tally{label: sp})
		}
		order[k].n++
	}

	best := UnknownSpeaker
	bestN := 0
	for _, t := range order {
		if t.n > bestN {
			best, bestN = t.label, t.n
		}
	}
	total := len(segs)
	if total == 0 {
		total = 1
	}
	if float64(bestN)/float64(total) < dominantShare {
		return MultipleSpeaker
	}
	return best
}
