package match

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// SuggesterOption is a functional option for configuring a [Suggester].
type SuggesterOption func(*Suggester)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched name to be suggested. Default: 0.70.
func WithPhoneticThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) {
		s.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate exists and the suggester falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) {
		s.fuzzyThreshold = threshold
	}
}

// Suggester produces "did you mean" candidates when the deterministic
// rules in [Customer] and [Product] miss. Suggestions feed error messages
// only; a suggestion is never posted to the ledger.
//
// Candidates are filtered by Double Metaphone code overlap, then ranked by
// Jaro-Winkler similarity on the original strings. When no candidate
// overlaps phonetically, a second pass applies pure Jaro-Winkler with the
// stricter fuzzy threshold.
//
// All methods are safe for concurrent use. The Suggester is read-only
// after construction.
type Suggester struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewSuggester returns a [Suggester] configured with the supplied options.
func NewSuggester(opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggest returns the name most phonetically similar to term, together with
// its similarity score. When nothing clears the thresholds, ok is false and
// name is empty.
func (s *Suggester) Suggest(term string, names []string) (name string, score float64, ok bool) {
	termLower := strings.ToLower(strings.TrimSpace(term))
	if termLower == "" || len(names) == 0 {
		return "", 0, false
	}
	termTokens := strings.Fields(termLower)
	termCodes := codesForTokens(termTokens)

	type candidate struct {
		name     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, n := range names {
		nameLower := strings.ToLower(strings.TrimSpace(n))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)
		phonetic := codesOverlap(termCodes, codesForTokens(nameTokens))
		jw := bestJWScore(termTokens, nameTokens, termLower, nameLower)

		if phonetic {
			if jw >= s.phoneticThreshold && (!best.phonetic || jw > best.score) {
				best = candidate{name: n, score: jw, phonetic: true}
			}
		} else if !best.phonetic && jw >= s.fuzzyThreshold && jw > best.score {
			best = candidate{name: n, score: jw, phonetic: false}
		}
	}

	if best.name == "" {
		return "", 0, false
	}
	return best.name, best.score, true
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, sec := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if sec != "" {
			codes[sec] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity across the
// full strings, their space-stripped forms, and every token pair.
func bestJWScore(aTokens, bTokens []string, aFull, bFull string) float64 {
	score := matchr.JaroWinkler(aFull, bFull, false)

	if len(aTokens) > 1 || len(bTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(aTokens, ""), strings.Join(bTokens, ""), false); s > score {
			score = s
		}
	}

	for _, at := range aTokens {
		for _, bt := range bTokens {
			if s := matchr.JaroWinkler(at, bt, false); s > score {
				score = s
			}
		}
	}
	return score
}
