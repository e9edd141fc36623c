package highlights

import (
	"fmt"
	"regexp"
	"strings"
)

// Vocabulary holds the curated tables the extractor matches against. Pattern
// lists are RE2 expressions matched case-insensitively; ActionWords are plain
// lower-case substrings reported in table order.
type Vocabulary struct {
	ActionWords  []string `yaml:"action_words"`
	Controversy  []string `yaml:"controversy"`
	StrongClaims []string `yaml:"strong_claims"`
	LowValue     []string `yaml:"low_value"`
	Actionable   []string `yaml:"actionable"`
	Emotion      []string `yaml:"emotion"`
}

// DefaultVocabulary returns a fresh copy of the built-in English tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ActionWords: []string{
			"never", "always", "must", "should", "need to",
			"mistake", "problem", "issue", "challenge",
			"secret", "truth", "reality", "fact",
			"best", "worst", "greatest", "terrible",
		},
		Controversy: []string{
			`hot take`,
			`unpopular opinion`,
			`everyone gets this wrong`,
			`nobody talks about`,
			`here'?s the truth`,
			`the reality is`,
		},
		StrongClaims: []string{
			`biggest mistake`,
			`here'?s the (truth|secret)`,
			`nobody tells you`,
		},
		LowValue: []string{
			`\bwelcome to\b`,
			`\bwelcome back\b`,
			`\blet'?s dive in\b`,
			`\bthanks for (having me|listening|your time)\b`,
			`\blike and subscribe\b`,
			`\bsponsor(ed)?\b`,
			`\bbrought to you by\b`,
		},
		Actionable: []string{
			`\bhere'?s how\b`,
			`\bhow do you\b`,
			`\bsteps\b`,
			`\bfirst\b`,
			`\bsecond\b`,
			`\bthird\b`,
			`\bfinally\b`,
			`\bdo this\b`,
			`\btry this\b`,
			`\byou should\b`,
		},
		Emotion: []string{
			`\blove\b`, `\bhate\b`, `\bexcited\b`, `\bscared\b`, `\bfrustrated\b`,
			`\bamazing\b`, `\bcrazy\b`, `\binsane\b`, `\bmind blowing\b`, `\boof\b`,
		},
	}
}

// Merge returns v with every non-empty list of o replacing its counterpart.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return base
	}
	return Vocabulary{
		ActionWords:  pick(v.ActionWords, o.ActionWords),
		Controversy:  pick(v.Controversy, o.Controversy),
		StrongClaims: pick(v.StrongClaims, o.StrongClaims),
		LowValue:     pick(v.LowValue, o.LowValue),
		Actionable:   pick(v.Actionable, o.Actionable),
		Emotion:      pick(v.Emotion, o.Emotion),
	}
}

var (
	reSpace    = regexp.MustCompile(`\s+`)
	reNumeric  = regexp.MustCompile(`\b\d+(\.\d+)?\b|%|\$\s?\d+`)
	reComplete = regexp.MustCompile(`[.!?]$`)
)

// Features is the full signal set derived from a text span and its duration.
type Features struct {
	HasQuestion    bool
	HasControversy bool
	HasStrongClaim bool
	HasNumbers     bool
	Completeness   bool
	IsLowValue     bool
	IsActionable   bool
	HasEmotion     bool
	OptimalLength  bool
	ActionWords    []string
}

// Extractor derives Features from text using a compiled Vocabulary. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	actionWords  []string
	controversy  []*regexp.Regexp
	strongClaims []*regexp.Regexp
	lowValue     []*regexp.Regexp
	actionable   []*regexp.Regexp
	emotion      []*regexp.Regexp
}

func NewExtractor(v Vocabulary) (*Extractor, error) {
	e := &Extractor{}
	for _, w := range v.ActionWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			e.actionWords = append(e.actionWords, w)
		}
	}
	lists := []struct {
		name string
		src  []string
		dst  *[]*regexp.Regexp
	}{
		{"controversy", v.Controversy, &e.controversy},
		{"strong_claims", v.StrongClaims, &e.strongClaims},
		{"low_value", v.LowValue, &e.lowValue},
		{"actionable", v.Actionable, &e.actionable},
		{"emotion", v.Emotion, &e.emotion},
	}
	for _, l := range lists {
		for _, p := range l.src {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("%s pattern %q: %w", l.name, p, err)
			}
			*l.dst = append(*l.dst, re)
		}
	}
	return e, nil
}

var defaultExtractor = mustExtractor(DefaultVocabulary())

func mustExtractor(v Vocabulary) *Extractor {
	e, err := NewExtractor(v)
	if err != nil {
		panic(err)
	}
	return e
}

// NormalizeText collapses whitespace runs to single spaces and trims.
func NormalizeText(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// Extract computes the signals for an already normalized text span.
func (e *Extractor) Extract(text string, duration float64) Features {
	lower := strings.ToLower(text)
	hits := []string{}
	for _, w := range e.actionWords {
		if strings.Contains(lower, w) {
			hits = append(hits, w)
		}
	}
	return Features{
		HasQuestion:    strings.Contains(text, "?"),
		HasControversy: anyMatch(e.controversy, text),
		HasStrongClaim: anyMatch(e.strongClaims, text),
		HasNumbers:     reNumeric.MatchString(text),
		Completeness:   reComplete.MatchString(strings.TrimSpace(text)),
		IsLowValue:     anyMatch(e.lowValue, text),
		IsActionable:   anyMatch(e.actionable, text),
		HasEmotion:     anyMatch(e.emotion, text),
		OptimalLength:  duration >= 30 && duration <= 90,
		ActionWords:    hits,
	}
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
