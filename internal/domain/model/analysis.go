package model

import (
	"time"

	"github.com/okian/sentiscan/internal/domain/types"
)

// Label is the coarse sentiment class of a review.
type Label string

// Sentiment labels.
const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Neutral band around zero polarity.
const neutralBand = 0.05

// LabelFor classifies a polarity in [-1, 1].
func LabelFor(polarity float64) Label {
	switch {
	case polarity > neutralBand:
		return LabelPositive
	case polarity < -neutralBand:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// SentimentScore is the scorer's verdict on one review.
type SentimentScore struct {
	ReviewID string  `json:"review_id"`
	Polarity float64 `json:"polarity"`
	Label    Label   `json:"label"`
}

// ThemeCluster groups reviews sharing a theme. Derived per analysis run.
type ThemeCluster struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	ReviewIDs []string `json:"review_ids"`
}

// Size returns the number of reviews in the cluster.
func (c ThemeCluster) Size() int { return len(c.ReviewIDs) }

// Summary is a cached LLM summary keyed by fingerprint.
type Summary struct {
	Fingerprint string    `json:"fingerprint"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// ThemeSummary pairs a cluster with its summary.
type ThemeSummary struct {
	Cluster ThemeCluster `json:"cluster"`
	Summary Summary      `json:"summary"`
}

// TrendPoint is one daily bucket of the trend series.
type TrendPoint struct {
	Date         string   `json:"date"`
	Count        int      `json:"count"`
	MeanPolarity *float64 `json:"mean_polarity"`
}

// Topic is a recurring term and how many reviews mention it.
type Topic struct {
	Term  string  `json:"term"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // Count / TotalCount
}

// VersionStat aggregates the reviews attributed to one app version. Ordered
// by FirstSeen, a list of them is the release timeline.
type VersionStat struct {
	Version      string   `json:"version"`
	Count        int      `json:"count"`
	MeanRating   *float64 `json:"mean_rating"`
	MeanPolarity *float64 `json:"mean_polarity"`
	FirstSeen    string   `json:"first_seen"`
	LastSeen     string   `json:"last_seen"`
}

// Metrics aggregates one review set. Nil pointers mean "no data".
type Metrics struct {
	TotalCount          int              `json:"total_count"`
	MeanPolarity        *float64         `json:"mean_polarity"`
	MeanRating          *float64         `json:"mean_rating"`
	ResponseRate        *float64         `json:"response_rate"`
	MeanEngagement      *float64         `json:"mean_engagement"`
	RatingDistribution  map[int]int      `json:"rating_distribution"`
	SentimentByRating   map[int]float64  `json:"sentiment_by_rating"`
	LabelCounts         map[Label]int    `json:"label_counts"`
	MostEngagedReviewID string           `json:"most_engaged_review_id,omitempty"`
	Trend               []TrendPoint     `json:"trend"`
	Themes              []ThemeCluster   `json:"themes"`
	Topics              []Topic          `json:"topics"`
	Versions            []VersionStat    `json:"versions"`
	Scores              []SentimentScore `json:"-"`
}

// ThemeShares returns, per theme ID, the fraction of reviews in that theme.
func (m Metrics) ThemeShares() map[string]float64 {
	out := make(map[string]float64, len(m.Themes))
	if m.TotalCount == 0 {
		return out
	}
	for _, c := range m.Themes {
		out[c.ID] = float64(c.Size()) / float64(m.TotalCount)
	}
	return out
}

// TopicShares returns, per topic term, the fraction of reviews mentioning it.
func (m Metrics) TopicShares() map[string]float64 {
	out := make(map[string]float64, len(m.Topics))
	for _, t := range m.Topics {
		out[t.Term] = t.Share
	}
	return out
}

// Ratings are the star values a review can carry.
var Ratings = []int{1, 2, 3, 4, 5}

// Labels are every sentiment label, in display order.
var Labels = []Label{LabelPositive, LabelNeutral, LabelNegative}

// MetricsDelta is B - A for every numeric metric. A nil field means one side
// had no data. Count maps cover every rating and label; share maps cover
// the union of both sides with a missing key counted as zero.
// SentimentByRating only holds ratings both sides have reviews for.
type MetricsDelta struct {
	TotalCount         int                `json:"total_count"`
	MeanPolarity       *float64           `json:"mean_polarity"`
	MeanRating         *float64           `json:"mean_rating"`
	ResponseRate       *float64           `json:"response_rate"`
	MeanEngagement     *float64           `json:"mean_engagement"`
	RatingDistribution map[int]int        `json:"rating_distribution"`
	SentimentByRating  map[int]float64    `json:"sentiment_by_rating"`
	LabelCounts        map[Label]int      `json:"label_counts"`
	ThemeShares        map[string]float64 `json:"theme_shares"`
	TopicShares        map[string]float64 `json:"topic_shares"`
}

// Diff computes b - a.
func Diff(a, b Metrics) MetricsDelta {
	d := MetricsDelta{
		TotalCount:         b.TotalCount - a.TotalCount,
		MeanPolarity:       subtract(b.MeanPolarity, a.MeanPolarity),
		MeanRating:         subtract(b.MeanRating, a.MeanRating),
		ResponseRate:       subtract(b.ResponseRate, a.ResponseRate),
		MeanEngagement:     subtract(b.MeanEngagement, a.MeanEngagement),
		RatingDistribution: make(map[int]int, len(Ratings)),
		SentimentByRating:  make(map[int]float64),
		LabelCounts:        make(map[Label]int, len(Labels)),
		ThemeShares:        shareDelta(a.ThemeShares(), b.ThemeShares()),
		TopicShares:        shareDelta(a.TopicShares(), b.TopicShares()),
	}
	for _, r := range Ratings {
		d.RatingDistribution[r] = b.RatingDistribution[r] - a.RatingDistribution[r]
		pa, okA := a.SentimentByRating[r]
		pb, okB := b.SentimentByRating[r]
		if okA && okB {
			d.SentimentByRating[r] = pb - pa
		}
	}
	for _, l := range Labels {
		d.LabelCounts[l] = b.LabelCounts[l] - a.LabelCounts[l]
	}
	return d
}

func shareDelta(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for k, v := range a {
		out[k] = b[k] - v
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func subtract(b, a *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *b - *a
	return &d
}

// PeriodResult is the full analysis of one app over one range.
type PeriodResult struct {
	AppID     string          `json:"app_id"`
	Range     types.DateRange `json:"range"`
	Metrics   Metrics         `json:"metrics"`
	Summaries []ThemeSummary  `json:"summaries"`
	Reviews   []Review        `json:"reviews,omitempty"`
}

// Comparison kinds.
const (
	KindPeriods = "periods" // one app, two ranges
	KindApps    = "apps"    // two apps, one range
)

// ComparisonResult is the transient outcome of comparing two periods of one
// app, or two apps over one period. AppID is empty for app comparisons; A
// and B carry their own app and range.
type ComparisonResult struct {
	Kind         string       `json:"kind"`
	AppID        string       `json:"app_id,omitempty"`
	A            PeriodResult `json:"a"`
	B            PeriodResult `json:"b"`
	Delta        MetricsDelta `json:"delta"`
	DeltaSummary Summary      `json:"delta_summary"`
}

// VersionMetrics is the analysis of the reviews attributed to one version.
type VersionMetrics struct {
	Version string  `json:"version"`
	Metrics Metrics `json:"metrics"`
}

// VersionComparison contrasts two app versions seen within one range.
type VersionComparison struct {
	AppID string          `json:"app_id"`
	Range types.DateRange `json:"range"`
	A     VersionMetrics  `json:"a"`
	B     VersionMetrics  `json:"b"`
	Delta MetricsDelta    `json:"delta"`
}
