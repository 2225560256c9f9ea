// Package sentiment defines the contract for scoring review text polarity.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Default scoring configuration constants.
const (
	defaultNegationWindow = 3
	intensifierBoost      = 1.3
	negationFactor        = -0.5
)

// Scorer returns a polarity in [-1, 1] for a piece of text.
type Scorer interface {
	// Score computes the polarity, honoring ctx for cancellation.
	Score(ctx context.Context, text string) (float64, error)
}

// Option applies a configuration option to the LexiconScorer.
type Option func(*LexiconScorer)

// WithLexicon adds or overrides word polarities. Values are clamped to [-1, 1].
func WithLexicon(words map[string]float64) Option {
	return func(s *LexiconScorer) {
		for w, p := range words {
			s.lexicon[strings.ToLower(w)] = clamp(p)
		}
	}
}

// WithNegationWindow sets how many tokens a negator reaches forward.
func WithNegationWindow(n int) Option {
	return func(s *LexiconScorer) {
		if n > 0 {
			s.negationWindow = n
		}
	}
}

// LexiconScorer averages the polarity of known words, flipping words that
// follow a negator and boosting words that follow an intensifier.
type LexiconScorer struct {
	lexicon        map[string]float64
	negationWindow int
}

// NewLexiconScorer creates a scorer seeded with the built-in lexicon.
func NewLexiconScorer(opts ...Option) *LexiconScorer {
	s := &LexiconScorer{
		lexicon:        make(map[string]float64, len(baseLexicon)),
		negationWindow: defaultNegationWindow,
	}
	for w, p := range baseLexicon {
		s.lexicon[w] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the polarity of text. Text without any known word is 0.
func (s *LexiconScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}

	tokens := tokenize(text)
	var (
		sum     float64
		n       int
		negated int // tokens left under the last negator
		boost   = 1.0
	)
	for _, tok := range tokens {
		if negators[tok] {
			negated = s.negationWindow
			continue
		}
		if intensifiers[tok] {
			boost = intensifierBoost
			continue
		}
		p, ok := s.lexicon[tok]
		if ok {
			p *= boost
			if negated > 0 {
				p *= negationFactor
			}
			sum += clamp(p)
			n++
		}
		boost = 1.0
		if negated > 0 {
			negated--
		}
	}
	if n == 0 {
		return 0, nil
	}
	return clamp(sum / float64(n)), nil
}

func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "n't", " not"))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func clamp(p float64) float64 {
	return math.Max(-1, math.Min(1, p))
}
