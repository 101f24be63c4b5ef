package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Scorer computes name similarity on a 0..100 scale.
// All measures compare lower-cased names.
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreBreakdown holds every measure for one name pair.
type ScoreBreakdown struct {
	Ratio          float64
	TokenSortRatio float64
	PartialRatio   float64

	// Keyword is -1 when either name has no keywords.
	Keyword float64
}

// Composite returns the strongest single measure.
func (b ScoreBreakdown) Composite() float64 {
	best := b.Ratio
	for _, s := range []float64{b.TokenSortRatio, b.PartialRatio, b.Keyword} {
		if s > best {
			best = s
		}
	}
	return best
}

// Score compares an observed name, with its pre-extracted keywords,
// against a candidate name.
func (s *Scorer) Score(name string, nameKeywords []string, candidate string) ScoreBreakdown {
	a := strings.ToLower(name)
	b := strings.ToLower(candidate)

	return ScoreBreakdown{
		Ratio:          s.Ratio(a, b),
		TokenSortRatio: s.TokenSortRatio(a, b),
		PartialRatio:   s.PartialRatio(a, b),
		Keyword:        s.KeywordScore(nameKeywords, ExtractKeywords(candidate)),
	}
}

// Ratio is the normalised Levenshtein similarity of two whole strings.
func (s *Scorer) Ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 100
	}
	maxLen := max(la, lb)
	dist := levenshtein.ComputeDistance(a, b)
	return (1 - float64(dist)/float64(maxLen)) * 100
}

// TokenSortRatio compares the strings after sorting their words,
// so word order does not matter.
func (s *Scorer) TokenSortRatio(a, b string) float64 {
	return s.Ratio(sortedTokens(a), sortedTokens(b))
}

// PartialRatio is the best Ratio between the shorter string and any
// equally long window of the longer one, so extra words do not matter.
func (s *Scorer) PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}

	short := string(ra)
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		score := s.Ratio(short, string(rb[i:i+len(ra)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// KeywordScore is |A ∩ B| / max(len(A), len(B)) * 100.
// It returns -1 when either list is empty so the measure is skipped.
func (s *Scorer) KeywordScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return -1
	}
	setB := make(map[string]struct{}, len(b))
	for _, k := range b {
		setB[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	common := 0
	for _, k := range a {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := setB[k]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(a), len(b))) * 100
}

// sortedTokens lower-cases s, replaces punctuation with spaces and
// joins the sorted words.
func sortedTokens(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
