// Package analysis turns a review set into aggregate metrics.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/sentiment"
	"github.com/okian/sentiscan/internal/domain/theme"
	"github.com/okian/sentiscan/internal/domain/topic"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/internal/domain/version"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithScorer sets the sentiment collaborator.
func WithScorer(s sentiment.Scorer) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithClusterer sets the theme strategy.
func WithClusterer(c theme.Clusterer) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.clusterer = c
		}
	}
}

// WithTopics sets the topic strategy.
func WithTopics(e topic.Extractor) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.topics = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// Analyzer computes Metrics for a review set.
type Analyzer struct {
	scorer    sentiment.Scorer
	clusterer theme.Clusterer
	topics    topic.Extractor
	log       logger.Logger
}

// New creates an Analyzer with the lexicon scorer, keyword clusterer and
// frequency topic extractor.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		scorer:    sentiment.NewLexiconScorer(),
		clusterer: theme.NewKeywordClusterer(),
		topics:    topic.NewFrequencyExtractor(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores every review and aggregates. An empty set yields TotalCount
// 0 with nil means. Trend buckets cover every day of dr; reviews posted
// outside dr count toward the aggregates but not the trend.
func (a *Analyzer) Analyze(ctx context.Context, reviews []model.Review, dr types.DateRange) (model.Metrics, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	scores := make([]model.SentimentScore, len(reviews))
	for i, r := range reviews {
		p, err := a.scorer.Score(ctx, r.Text)
		if err != nil {
			return model.Metrics{}, fmt.Errorf("score review %s: %w", r.ID, err)
		}
		scores[i] = model.SentimentScore{ReviewID: r.ID, Polarity: p, Label: model.LabelFor(p)}
	}

	m := aggregate(reviews, scores)
	m.Trend = trend(reviews, scores, dr)

	clusters, err := a.clusterer.Cluster(ctx, reviews)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("cluster reviews: %w", err)
	}
	m.Themes = clusters

	topics, err := a.topics.Extract(ctx, reviews)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("extract topics: %w", err)
	}
	m.Topics = topics
	m.Versions = version.Stats(reviews, scores)

	a.log.Debug(ctx, "analysis complete",
		logger.Int("reviews", m.TotalCount),
		logger.Int("themes", len(clusters)),
		logger.Int("topics", len(topics)),
		logger.Int("versions", len(m.Versions)),
		logger.String("range", dr.String()))
	return m, nil
}

func aggregate(reviews []model.Review, scores []model.SentimentScore) model.Metrics {
	m := model.Metrics{
		TotalCount:         len(reviews),
		RatingDistribution: map[int]int{},
		SentimentByRating:  map[int]float64{},
		LabelCounts:        map[model.Label]int{},
		Scores:             scores,
	}
	if len(reviews) == 0 {
		return m
	}

	var polSum, ratingSum, thumbsSum float64
	var replied, bestThumbs int
	perRatingSum := map[int]float64{}
	for i, r := range reviews {
		polSum += scores[i].Polarity
		ratingSum += float64(r.Rating)
		thumbsSum += float64(r.ThumbsUp)
		if r.HasReply() {
			replied++
		}
		m.RatingDistribution[r.Rating]++
		perRatingSum[r.Rating] += scores[i].Polarity
		m.LabelCounts[scores[i].Label]++
		if i == 0 || r.ThumbsUp > bestThumbs {
			bestThumbs = r.ThumbsUp
			m.MostEngagedReviewID = r.ID
		}
	}
	for rating, sum := range perRatingSum {
		m.SentimentByRating[rating] = sum / float64(m.RatingDistribution[rating])
	}

	n := float64(len(reviews))
	m.MeanPolarity = mean(polSum, n)
	m.MeanRating = mean(ratingSum, n)
	m.ResponseRate = mean(float64(replied), n)
	m.MeanEngagement = mean(thumbsSum, n)
	return m
}

func trend(reviews []model.Review, scores []model.SentimentScore, dr types.DateRange) []model.TrendPoint {
	days := dr.Dates()
	points := make([]model.TrendPoint, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		key := types.FormatDate(d)
		points[i] = model.TrendPoint{Date: key}
		index[key] = i
	}

	sums := make([]float64, len(days))
	for i, r := range reviews {
		j, ok := index[types.FormatDate(r.PostedAt)]
		if !ok {
			continue
		}
		points[j].Count++
		sums[j] += scores[i].Polarity
	}
	for j := range points {
		points[j].MeanPolarity = mean(sums[j], float64(points[j].Count))
	}
	return points
}

// mean returns nil when there is nothing to divide by.
func mean(sum, n float64) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / n
	return &v
}
