package highlights

import (
	"strconv"
	"strings"

	"github.com/forPelevin/shortsfinder/internal/types"
)

// Options bounds candidate generation. Durations are in seconds.
type Options struct {
	MinDuration float64
	MaxDuration float64
	// HardMaxDuration caps window expansion regardless of MaxDuration.
	HardMaxDuration float64
	MinScore        int
	// CombineSegments enables multi-segment windows. Off by default: only
	// single segments are considered unless the caller opts in.
	CombineSegments bool

	// ExpandSlack stops expanding a window once it runs this far past
	// MaxDuration. Zero stops right at MaxDuration; negative selects the
	// default.
	ExpandSlack float64
	// OverlapThreshold is the overlap ratio above which a lower-ranked
	// candidate is suppressed.
	OverlapThreshold float64
	// MaxKept caps the deduplicated output.
	MaxKept int
}

const (
	DefaultMinDuration      = 30
	DefaultMaxDuration      = 90
	DefaultHardMaxDuration  = 130
	DefaultExpandSlack      = 10
	DefaultOverlapThreshold = 0.75
	DefaultMaxKept          = 300
)

func DefaultOptions() Options {
	return Options{
		MinDuration:      DefaultMinDuration,
		MaxDuration:      DefaultMaxDuration,
		HardMaxDuration:  DefaultHardMaxDuration,
		ExpandSlack:      DefaultExpandSlack,
		OverlapThreshold: DefaultOverlapThreshold,
		MaxKept:          DefaultMaxKept,
	}
}

// withDefaults fills the search tunables left unset. MinDuration, MaxDuration,
// MinScore and a zero ExpandSlack are taken as given.
func (o Options) withDefaults() Options {
	if o.HardMaxDuration <= 0 {
		o.HardMaxDuration = DefaultHardMaxDuration
	}
	if o.ExpandSlack < 0 {
		o.ExpandSlack = DefaultExpandSlack
	}
	if o.OverlapThreshold <= 0 {
		o.OverlapThreshold = DefaultOverlapThreshold
	}
	if o.MaxKept <= 0 {
		o.MaxKept = DefaultMaxKept
	}
	return o
}

// Engine turns transcripts into ranked clip candidates. The zero value is not
// usable; construct with NewEngine.
type Engine struct {
	ex *Extractor
}

func NewEngine(ex *Extractor) *Engine {
	if ex == nil {
		ex = defaultExtractor
	}
	return &Engine{ex: ex}
}

// IdentifyClips runs the engine with the default vocabulary.
func IdentifyClips(segs []types.Segment, opts Options) []types.Candidate {
	return NewEngine(nil).IdentifyClips(segs, opts)
}

// IdentifyClips returns candidates sorted by score desc, start asc, with
// overlapping lower scorers suppressed. segs is not modified.
func (e *Engine) IdentifyClips(segs []types.Segment, opts Options) []types.Candidate {
	opts = opts.withDefaults()
	pool := e.BuildCandidates(segs, opts)
	SortCandidates(pool)
	// Singles-only output is deduplicated too, so overlapping diarized
	// segments collapse to the best scorer.
	return Dedupe(pool, opts.OverlapThreshold, opts.MaxKept)
}

// BuildCandidates produces the unranked pool: every single segment within
// bounds, then (when enabled) every contiguous multi-segment window within
// bounds.
func (e *Engine) BuildCandidates(segs []types.Segment, opts Options) []types.Candidate {
	opts = opts.withDefaults()
	if len(segs) == 0 {
		return nil
	}
	out := e.singles(segs, opts)
	if opts.CombineSegments {
		out = append(out, e.windows(segs, opts)...)
	}
	return out
}

func (e *Engine) singles(segs []types.Segment, opts Options) []types.Candidate {
	var out []types.Candidate
	for i, s := range segs {
		d := segmentDuration(s)
		if !inBounds(d, opts) {
			continue
		}
		sc := e.ex.Score(s.Text, d)
		if sc.Score < opts.MinScore {
			continue
		}
		out = append(out, e.candidate(sc, segs, i, i, d))
	}
	return out
}

func (e *Engine) windows(segs []types.Segment, opts Options) []types.Candidate {
	var out []types.Candidate
	for i := 0; i < len(segs); i++ {
		start := segs[i].StartTime
		parts := make([]string, 0, 8)
		for j := i; j < len(segs); j++ {
			d := span(start, segs[j].EndTime)
			if d > opts.HardMaxDuration {
				break
			}
			parts = append(parts, NormalizeText(segs[j].Text))
			if d < opts.MinDuration {
				continue
			}
			// Single segments are covered by the first pass.
			if j > i && inBounds(d, opts) {
				sc := e.ex.Score(strings.Join(parts, " "), d)
				if sc.Score >= opts.MinScore {
					out = append(out, e.candidate(sc, segs, i, j, d))
				}
			}
			if d > opts.MaxDuration+opts.ExpandSlack {
				break
			}
		}
	}
	return out
}

// inBounds is false for NaN bounds.
func inBounds(d float64, opts Options) bool {
	return d >= opts.MinDuration && d <= opts.MaxDuration
}

func (e *Engine) candidate(sc Scored, segs []types.Segment, i, j int, d float64) types.Candidate {
	texts := make([]string, 0, j-i+1)
	for k := i; k <= j; k++ {
		texts = append(texts, segs[k].Text)
	}
	c := types.Candidate{
		StartTime:         finite(segs[i].StartTime),
		EndTime:           finite(segs[j].EndTime),
		Duration:          d,
		Score:             sc.Score,
		Text:              NormalizeText(strings.Join(texts, " ")),
		EngagementFactors: sc.Factors(),
		Reasoning:         sc.Reasoning,
		First:             i,
		Last:              j,
	}
	if i == j {
		c.ClipID = "clip_" + segmentID(segs[i], i)
		c.Speaker = segs[i].Speaker
	} else {
		c.ClipID = "clip_" + segmentID(segs[i], i) + "_" + segmentID(segs[j], j)
		c.Speaker = DominantSpeaker(segs[i : j+1])
	}
	return c
}

// segmentID falls back to the segment's position when the source gave no id.
func segmentID(s types.Segment, pos int) string {
	if s.ID != "" {
		return s.ID
	}
	return "n" + strconv.Itoa(pos)
}
