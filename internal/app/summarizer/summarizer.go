// Package summarizer produces LLM summaries of theme clusters, computing each
// distinct fingerprint at most once.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/okian/sentiscan/internal/adapters/llm"
	"github.com/okian/sentiscan/internal/adapters/repository"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

const (
	defaultMemoSize         = 512
	defaultCallTimeout      = 3 * time.Minute
	comparisonSystemPrompt  = "You are a product analyst who explains how app reviews change over time."
	competitiveSystemPrompt = "You are a competitive analysis expert specializing in app reviews."
)

// Option applies a configuration option to the Summarizer.
type Option func(*Summarizer)

// WithMemoSize sets the in-memory LRU size.
func WithMemoSize(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.memoSize = n
		}
	}
}

// WithGeneration sets max tokens and temperature for LLM calls.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(s *Summarizer) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature >= 0 {
			s.temperature = temperature
		}
	}
}

// WithCallTimeout bounds one shared lookup-and-generate call, rate limit
// wait included. Callers that give up earlier stop waiting on it at once.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Summarizer) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.log = l
		}
	}
}

// Summarizer looks summaries up in an LRU, then the repository, and only on
// a miss in both asks the LLM. Failed generations are never stored.
type Summarizer struct {
	repo        repository.SummaryStore
	client      llm.Client
	memo        *lru.Cache[string, model.Summary]
	memoSize    int
	group       singleflight.Group
	maxTokens   int
	temperature float64
	callTimeout time.Duration
	now         func() time.Time
	log         logger.Logger
}

// New creates a Summarizer.
func New(repo repository.SummaryStore, client llm.Client, opts ...Option) (*Summarizer, error) {
	s := &Summarizer{
		repo:        repo,
		client:      client,
		memoSize:    defaultMemoSize,
		maxTokens:   llm.DefaultMaxTokens,
		temperature: llm.DefaultTemperature,
		callTimeout: defaultCallTimeout,
		now:         time.Now,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	memo, err := lru.New[string, model.Summary](s.memoSize)
	if err != nil {
		return nil, fmt.Errorf("create summary memo: %w", err)
	}
	s.memo = memo
	return s, nil
}

// Summarize returns the summary of cluster. texts are the review texts the
// LLM sees on a miss; they do not take part in the fingerprint.
func (s *Summarizer) Summarize(ctx context.Context, cluster model.ThemeCluster, appID string, dr types.DateRange, texts []string) (model.Summary, error) {
	fp := Fingerprint(appID, dr, cluster.ID, cluster.ReviewIDs)
	return s.getOrCreate(ctx, fp, llm.Prompt{
		System: llm.DefaultSystemPrompt,
		User:   clusterPrompt(appID, cluster.Label, dr, texts),
	})
}

// SummarizeComparison describes the qualitative change from period a to b.
func (s *Summarizer) SummarizeComparison(ctx context.Context, appID string, a, b types.DateRange, ma, mb model.Metrics, delta model.MetricsDelta) (model.Summary, error) {
	fp := ComparisonFingerprint(appID, a, b, ma, mb)
	return s.getOrCreate(ctx, fp, llm.Prompt{
		System: comparisonSystemPrompt,
		User:   comparisonPrompt(appID, a, b, ma, mb, delta),
	})
}

// SummarizeCompetitive compares two apps over the same range.
func (s *Summarizer) SummarizeCompetitive(ctx context.Context, appA, appB string, dr types.DateRange, ma, mb model.Metrics, delta model.MetricsDelta) (model.Summary, error) {
	fp := CompetitiveFingerprint(appA, appB, dr, ma, mb)
	return s.getOrCreate(ctx, fp, llm.Prompt{
		System: competitiveSystemPrompt,
		User:   competitivePrompt(appA, appB, dr, ma, mb, delta),
	})
}

// SummarizeClusters summarizes every cluster in order. Review texts are fed
// to the LLM sorted by review ID. The first failure aborts the rest.
func (s *Summarizer) SummarizeClusters(ctx context.Context, appID string, dr types.DateRange, clusters []model.ThemeCluster, reviews []model.Review) ([]model.ThemeSummary, error) {
	textByID := make(map[string]string, len(reviews))
	for _, r := range reviews {
		textByID[r.ID] = r.Text
	}

	out := make([]model.ThemeSummary, 0, len(clusters))
	for _, c := range clusters {
		ids := append([]string(nil), c.ReviewIDs...)
		sort.Strings(ids)
		texts := make([]string, 0, len(ids))
		for _, id := range ids {
			if t := strings.TrimSpace(textByID[id]); t != "" {
				texts = append(texts, t)
			}
		}
		sum, err := s.Summarize(ctx, c, appID, dr, texts)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ThemeSummary{Cluster: c, Summary: sum})
	}
	return out, nil
}

func (s *Summarizer) getOrCreate(ctx context.Context, fp string, p llm.Prompt) (model.Summary, error) {
	if sum, ok := s.memo.Get(fp); ok {
		metrics.RecordSummaryLookup(metrics.ResultMemoryHit)
		return sum, nil
	}

	ch := s.group.DoChan(fp, func() (any, error) {
		// Shared by every waiter: detached from the first caller, bounded on its own.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		return s.load(fctx, fp, p)
	})
	select {
	case <-ctx.Done():
		return model.Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Summary{}, res.Err
		}
		return res.Val.(model.Summary), nil
	}
}

func (s *Summarizer) load(ctx context.Context, fp string, p llm.Prompt) (model.Summary, error) {
	sum, err := s.repo.GetSummary(ctx, fp)
	switch {
	case err == nil:
		metrics.RecordSummaryLookup(metrics.ResultDiskHit)
		s.memo.Add(fp, sum)
		return sum, nil
	case !errors.Is(err, repository.ErrNotFound):
		return model.Summary{}, &model.SummaryError{Fingerprint: fp, Err: err}
	}
	metrics.RecordSummaryLookup(metrics.ResultMiss)

	p.MaxTokens = s.maxTokens
	p.Temperature = s.temperature
	text, err := s.client.Complete(ctx, p)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.log.Error(ctx, "summary generation failed", logger.String("fingerprint", fp), logger.Error(err))
		return model.Summary{}, &model.SummaryError{Fingerprint: fp, Err: err}
	}

	sum = model.Summary{Fingerprint: fp, Text: strings.TrimSpace(text), CreatedAt: s.now().UTC()}
	written, err := s.repo.PutSummary(ctx, sum)
	if err != nil {
		return model.Summary{}, &model.SummaryError{Fingerprint: fp, Err: fmt.Errorf("persist: %w", err)}
	}
	if !written {
		if sum, err = s.repo.GetSummary(ctx, fp); err != nil {
			return model.Summary{}, &model.SummaryError{Fingerprint: fp, Err: err}
		}
	}
	s.memo.Add(fp, sum)
	s.log.Debug(ctx, "summary stored", logger.String("fingerprint", fp), logger.Int("chars", len(sum.Text)))
	return sum, nil
}

// Purge drops the in-memory memo. Persisted summaries are untouched.
func (s *Summarizer) Purge() {
	s.memo.Purge()
}
