// Package topic extracts the recurring terms of a review set.
package topic

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/okian/sentiscan/internal/domain/model"
)

const (
	defaultLimit    = 5
	defaultMinCount = 2
	minTermLength   = 3
)

// Extractor is the pluggable topic strategy.
type Extractor interface {
	Extract(ctx context.Context, reviews []model.Review) ([]model.Topic, error)
}

// Option applies a configuration option to the FrequencyExtractor.
type Option func(*FrequencyExtractor)

// WithLimit sets how many topics are returned.
func WithLimit(n int) Option {
	return func(e *FrequencyExtractor) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithMinCount sets how many reviews must mention a term for it to count.
func WithMinCount(n int) Option {
	return func(e *FrequencyExtractor) {
		if n > 0 {
			e.minCount = n
		}
	}
}

// WithStopwords adds words that never become topics.
func WithStopwords(words ...string) Option {
	return func(e *FrequencyExtractor) {
		for _, w := range words {
			e.stop[strings.ToLower(w)] = struct{}{}
		}
	}
}

// FrequencyExtractor ranks unigrams and bigrams by the number of reviews
// mentioning them. A unigram already covered by a higher ranked bigram is
// skipped, so "dark mode" does not also surface as "dark" and "mode".
type FrequencyExtractor struct {
	limit    int
	minCount int
	stop     map[string]struct{}
}

// NewFrequencyExtractor creates an extractor with the English stopword list.
func NewFrequencyExtractor(opts ...Option) *FrequencyExtractor {
	e := &FrequencyExtractor{
		limit:    defaultLimit,
		minCount: defaultMinCount,
		stop:     make(map[string]struct{}, len(stopwords)),
	}
	for _, w := range stopwords {
		e.stop[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns at most limit topics ordered by count desc, then bigrams
// before unigrams, then term. Shares are relative to len(reviews).
func (e *FrequencyExtractor) Extract(ctx context.Context, reviews []model.Review) ([]model.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return []model.Topic{}, nil
	}

	counts := map[string]int{}
	for _, r := range reviews {
		for term := range e.terms(r.Text) {
			counts[term]++
		}
	}

	ranked := make([]model.Topic, 0, len(counts))
	for term, n := range counts {
		if n >= e.minCount {
			ranked = append(ranked, model.Topic{Term: term, Count: n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		wi, wj := strings.Count(ranked[i].Term, " "), strings.Count(ranked[j].Term, " ")
		if wi != wj {
			return wi > wj
		}
		return ranked[i].Term < ranked[j].Term
	})

	out := make([]model.Topic, 0, e.limit)
	covered := map[string]struct{}{}
	for _, t := range ranked {
		if len(out) == e.limit {
			break
		}
		if _, ok := covered[t.Term]; ok {
			continue
		}
		for _, w := range strings.Fields(t.Term) {
			covered[w] = struct{}{}
		}
		t.Share = float64(t.Count) / float64(len(reviews))
		out = append(out, t)
	}
	return out, nil
}

// terms returns the distinct unigrams and adjacent bigrams of text.
func (e *FrequencyExtractor) terms(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	out := map[string]struct{}{}
	prev := ""
	for _, w := range words {
		w = strings.Trim(w, "'")
		if !e.keep(w) {
			prev = ""
			continue
		}
		out[w] = struct{}{}
		if prev != "" {
			out[prev+" "+w] = struct{}{}
		}
		prev = w
	}
	return out
}

func (e *FrequencyExtractor) keep(w string) bool {
	if len([]rune(w)) < minTermLength {
		return false
	}
	if _, ok := e.stop[w]; ok {
		return false
	}
	return strings.IndexFunc(w, unicode.IsLetter) >= 0
}
