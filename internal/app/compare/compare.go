// Package compare runs the per-period pipeline and diffs two periods.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/internal/domain/version"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

// Period names used in ComparisonError.
const (
	PeriodA = "A"
	PeriodB = "B"
)

// ReviewSource returns the merged reviews of a date range. Check reports
// whether a range would be accepted without fetching anything.
type ReviewSource interface {
	Check(dr types.DateRange) error
	Range(ctx context.Context, appID string, dr types.DateRange) ([]model.Review, error)
}

// Analyzer aggregates a review set.
type Analyzer interface {
	Analyze(ctx context.Context, reviews []model.Review, dr types.DateRange) (model.Metrics, error)
}

// Summarizer writes cluster and comparison summaries.
type Summarizer interface {
	SummarizeClusters(ctx context.Context, appID string, dr types.DateRange, clusters []model.ThemeCluster, reviews []model.Review) ([]model.ThemeSummary, error)
	SummarizeComparison(ctx context.Context, appID string, a, b types.DateRange, ma, mb model.Metrics, delta model.MetricsDelta) (model.Summary, error)
	SummarizeCompetitive(ctx context.Context, appA, appB string, dr types.DateRange, ma, mb model.Metrics, delta model.MetricsDelta) (model.Summary, error)
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithReviews controls whether PeriodResults carry the raw reviews.
func WithReviews(include bool) Option {
	return func(o *Orchestrator) {
		o.includeReviews = include
	}
}

// Orchestrator wires snapshots, analysis and summaries together.
type Orchestrator struct {
	reviews        ReviewSource
	analyzer       Analyzer
	summarizer     Summarizer
	includeReviews bool
	log            logger.Logger
}

// New creates an Orchestrator.
func New(reviews ReviewSource, analyzer Analyzer, summarizer Summarizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reviews:        reviews,
		analyzer:       analyzer,
		summarizer:     summarizer,
		includeReviews: true,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs the single-range pipeline: snapshots, metrics, one summary
// per theme cluster.
func (o *Orchestrator) Analyze(ctx context.Context, appID string, dr types.DateRange) (model.PeriodResult, error) {
	reviews, err := o.reviews.Range(ctx, appID, dr)
	if err != nil {
		return model.PeriodResult{}, err
	}
	m, err := o.analyzer.Analyze(ctx, reviews, dr)
	if err != nil {
		return model.PeriodResult{}, fmt.Errorf("analyze %s %s: %w", appID, dr, err)
	}
	sums, err := o.summarizer.SummarizeClusters(ctx, appID, dr, m.Themes, reviews)
	if err != nil {
		return model.PeriodResult{}, err
	}

	res := model.PeriodResult{AppID: appID, Range: dr, Metrics: m, Summaries: sums}
	if o.includeReviews {
		res.Reviews = reviews
	}
	return res, nil
}

// Compare analyzes a and b independently and reports B - A. Both ranges are
// checked before anything is fetched. Any failure returns a
// *model.ComparisonError naming the period and no partial result.
// Comparing a range with itself yields all-zero deltas.
func (o *Orchestrator) Compare(ctx context.Context, appID string, a, b types.DateRange) (*model.ComparisonResult, error) {
	start := time.Now()
	fail := o.failure(ctx, start, logger.String("app_id", appID))

	if err := o.reviews.Check(a); err != nil {
		return fail(PeriodA, err)
	}
	if err := o.reviews.Check(b); err != nil {
		return fail(PeriodB, err)
	}

	ra, err := o.Analyze(ctx, appID, a)
	if err != nil {
		return fail(PeriodA, err)
	}
	rb, err := o.Analyze(ctx, appID, b)
	if err != nil {
		return fail(PeriodB, err)
	}

	delta := model.Diff(ra.Metrics, rb.Metrics)
	ds, err := o.summarizer.SummarizeComparison(ctx, appID, a, b, ra.Metrics, rb.Metrics, delta)
	if err != nil {
		return fail(PeriodA+PeriodB, err)
	}

	metrics.RecordComparison(metrics.OutcomeOK)
	o.log.Info(ctx, "comparison complete",
		logger.String("app_id", appID),
		logger.String("a", a.String()),
		logger.String("b", b.String()),
		logger.Duration("took", time.Since(start)))
	return &model.ComparisonResult{Kind: model.KindPeriods, AppID: appID, A: ra, B: rb, Delta: delta, DeltaSummary: ds}, nil
}

// CompareApps analyzes two apps over the same range and reports B - A.
// Failures name the app that failed as period A or B.
func (o *Orchestrator) CompareApps(ctx context.Context, appA, appB string, dr types.DateRange) (*model.ComparisonResult, error) {
	start := time.Now()
	fail := o.failure(ctx, start, logger.String("app_a", appA), logger.String("app_b", appB))

	if err := o.reviews.Check(dr); err != nil {
		return fail(PeriodA+PeriodB, err)
	}
	ra, err := o.Analyze(ctx, appA, dr)
	if err != nil {
		return fail(PeriodA, err)
	}
	rb, err := o.Analyze(ctx, appB, dr)
	if err != nil {
		return fail(PeriodB, err)
	}

	delta := model.Diff(ra.Metrics, rb.Metrics)
	ds, err := o.summarizer.SummarizeCompetitive(ctx, appA, appB, dr, ra.Metrics, rb.Metrics, delta)
	if err != nil {
		return fail(PeriodA+PeriodB, err)
	}

	metrics.RecordComparison(metrics.OutcomeOK)
	o.log.Info(ctx, "app comparison complete",
		logger.String("app_a", appA),
		logger.String("app_b", appB),
		logger.String("range", dr.String()),
		logger.Duration("took", time.Since(start)))
	return &model.ComparisonResult{Kind: model.KindApps, A: ra, B: rb, Delta: delta, DeltaSummary: ds}, nil
}

// Versions returns the release timeline of the range: every version the
// reviews are attributed to, ordered by first day seen.
func (o *Orchestrator) Versions(ctx context.Context, appID string, dr types.DateRange) ([]model.VersionStat, error) {
	reviews, err := o.reviews.Range(ctx, appID, dr)
	if err != nil {
		return nil, err
	}
	m, err := o.analyzer.Analyze(ctx, reviews, dr)
	if err != nil {
		return nil, fmt.Errorf("analyze %s %s: %w", appID, dr, err)
	}
	return m.Versions, nil
}

// CompareVersions analyzes the reviews attributed to versions va and vb
// within dr and reports B - A. No LLM summary is produced.
func (o *Orchestrator) CompareVersions(ctx context.Context, appID string, dr types.DateRange, va, vb string) (*model.VersionComparison, error) {
	reviews, err := o.reviews.Range(ctx, appID, dr)
	if err != nil {
		return nil, err
	}
	groups := version.Group(reviews)

	analyze := func(v string) (model.VersionMetrics, error) {
		subset, ok := groups[v]
		if !ok {
			return model.VersionMetrics{}, fmt.Errorf("%w %q in %s", types.ErrUnknownVersion, v, dr)
		}
		m, err := o.analyzer.Analyze(ctx, subset, dr)
		if err != nil {
			return model.VersionMetrics{}, fmt.Errorf("analyze %s %s version %s: %w", appID, dr, v, err)
		}
		return model.VersionMetrics{Version: v, Metrics: m}, nil
	}

	a, err := analyze(va)
	if err != nil {
		return nil, err
	}
	b, err := analyze(vb)
	if err != nil {
		return nil, err
	}
	return &model.VersionComparison{AppID: appID, Range: dr, A: a, B: b, Delta: model.Diff(a.Metrics, b.Metrics)}, nil
}

func (o *Orchestrator) failure(ctx context.Context, start time.Time, fields ...logger.Field) func(string, error) (*model.ComparisonResult, error) {
	return func(period string, err error) (*model.ComparisonResult, error) {
		metrics.RecordComparison(metrics.OutcomeError)
		metrics.RecordErrorLatency("compare", "comparison_failed", float64(time.Since(start).Milliseconds()))
		fs := append([]logger.Field{logger.String("period", period), logger.Error(err)}, fields...)
		o.log.Error(ctx, "comparison failed", fs...)
		return nil, &model.ComparisonError{Period: period, Err: err}
	}
}
