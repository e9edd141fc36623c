package highlights

import (
	"math"
	"strings"

	"github.com/forPelevin/shortsfinder/internal/types"
)

// Point values of the additive engagement model.
const (
	ptsDurationCore    = 30 // 30..60s
	ptsDurationLong    = 24 // (60..90]s
	ptsDurationNear    = 10 // [20..30)s and (90..110]s
	ptsQuestion        = 18
	ptsControversy     = 18
	ptsStrongClaim     = 10
	ptsComplete        = 18
	ptsIncomplete      = -10
	ptsActionable      = 14
	ptsNumbers         = 12
	ptsEmotion         = 7
	ptsPerActionWord   = 2
	ptsActionWordsCap  = 10
	ptsLowValuePenalty = -30

	maxReasons        = 4
	fallbackReasoning = "Heuristic score from engagement signals"
)

// Scored is the outcome of scoring one text span.
type Scored struct {
	Score     int
	Features  Features
	Reasoning string
}

// Factors projects the feature set onto the exposed snapshot.
func (s Scored) Factors() types.EngagementFactors {
	words := s.Features.ActionWords
	if words == nil {
		words = []string{}
	}
	return types.EngagementFactors{
		HasQuestion:    s.Features.HasQuestion,
		HasControversy: s.Features.HasControversy,
		HasNumbers:     s.Features.HasNumbers,
		OptimalLength:  s.Features.OptimalLength,
		Completeness:   s.Features.Completeness,
		ActionWords:    words,
	}
}

// Score rates text over the given duration with the default vocabulary.
func Score(text string, duration float64) Scored {
	return defaultExtractor.Score(text, duration)
}

// ScoreSegment rates a single transcript segment with the default vocabulary.
func ScoreSegment(seg types.Segment) Scored {
	return defaultExtractor.Score(seg.Text, segmentDuration(seg))
}

// Score normalizes text and returns a deterministic score in [0..100].
func (e *Extractor) Score(text string, duration float64) Scored {
	text = NormalizeText(text)
	f := e.Extract(text, duration)

	score := durationPoints(duration)
	if f.HasQuestion {
		score += ptsQuestion
	}
	if f.HasControversy {
		score += ptsControversy
	}
	if f.HasStrongClaim {
		score += ptsStrongClaim
	}
	if f.Completeness {
		score += ptsComplete
	} else {
		score += ptsIncomplete
	}
	if f.IsActionable {
		score += ptsActionable
	}
	if f.HasNumbers {
		score += ptsNumbers
	}
	if f.HasEmotion {
		score += ptsEmotion
	}
	score += min(ptsPerActionWord*len(f.ActionWords), ptsActionWordsCap)
	if f.IsLowValue {
		score += ptsLowValuePenalty
	}

	return Scored{
		Score:     clamp(score, 0, 100),
		Features:  f,
		Reasoning: reasoning(f),
	}
}

func durationPoints(d float64) int {
	switch {
	case d >= 30 && d <= 60:
		return ptsDurationCore
	case d > 60 && d <= 90:
		return ptsDurationLong
	case d >= 20 && d < 30:
		return ptsDurationNear
	case d > 90 && d <= 110:
		return ptsDurationNear
	}
	return 0
}

func reasoning(f Features) string {
	parts := make([]string, 0, maxReasons)
	add := func(ok bool, s string) {
		if ok && len(parts) < maxReasons {
			parts = append(parts, s)
		}
	}
	add(f.OptimalLength, "Optimal length")
	add(f.HasQuestion, "Hook (question)")
	add(f.HasControversy, "Hook (controversy)")
	add(f.HasNumbers, "Numbers/specificity")
	add(f.IsActionable, "Actionable takeaway")
	add(f.Completeness, "Complete thought")
	add(f.IsLowValue, "Penalized intro/outro/sponsor")
	if len(parts) == 0 {
		return fallbackReasoning
	}
	return strings.Join(parts, " + ")
}

func segmentDuration(seg types.Segment) float64 {
	return span(seg.StartTime, seg.EndTime)
}

// span is end-start floored at zero; non-finite bounds count as zero.
func span(start, end float64) float64 {
	return math.Max(0, finite(end)-finite(start))
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(x, a, b int) int {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
