package playstore

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/okian/sentiscan/internal/domain/dedupe"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

// Default fetch configuration constants.
const (
	DefaultCount   = 200
	DefaultLang    = "en"
	DefaultCountry = "us"
)

// Quarantine reasons, used as metric labels.
const (
	reasonInvalid   = "invalid"
	reasonOffDate   = "off_date"
	reasonDuplicate = "duplicate"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithCount sets how many reviews to request per day.
func WithCount(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.count = n
		}
	}
}

// WithLocale sets the review language and store country.
func WithLocale(lang, country string) Option {
	return func(f *Fetcher) {
		if lang != "" {
			f.lang = lang
		}
		if country != "" {
			f.country = country
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// Fetcher calls a Source and turns its raw records into trusted Reviews.
// Records that fail validation, were posted on another day, or repeat an
// ID are quarantined: dropped, logged and counted.
type Fetcher struct {
	source   Source
	validate *validator.Validate
	policy   *bluemonday.Policy
	count    int
	lang     string
	country  string
	now      func() time.Time
	log      logger.Logger
}

// NewFetcher wraps source.
func NewFetcher(source Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:   source,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		policy:   bluemonday.StrictPolicy(),
		count:    DefaultCount,
		lang:     DefaultLang,
		country:  DefaultCountry,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Now returns the fetcher's current time.
func (f *Fetcher) Now() time.Time {
	return f.now()
}

// Fetch returns the reviews posted on date. A date after today is
// types.ErrFutureDate. Errors from the source are returned as is.
func (f *Fetcher) Fetch(ctx context.Context, appID string, date time.Time) ([]model.Review, error) {
	day := types.Day(date)
	if day.After(types.Day(f.now())) {
		return nil, fmt.Errorf("%w: %s", types.ErrFutureDate, types.FormatDate(day))
	}

	raw, err := f.source.Fetch(ctx, FetchRequest{
		AppID:   appID,
		Date:    day,
		Count:   f.count,
		Lang:    f.lang,
		Country: f.country,
	})
	if err != nil {
		return nil, err
	}

	fetchedAt := f.now().UTC()
	seen := dedupe.NewInMemoryDeduper()
	reviews := make([]model.Review, 0, len(raw))
	for _, r := range raw {
		if err := f.validate.StructCtx(ctx, r); err != nil {
			f.quarantine(ctx, appID, r.ReviewID, reasonInvalid, err)
			continue
		}
		if !types.Day(*r.At).Equal(day) {
			f.quarantine(ctx, appID, r.ReviewID, reasonOffDate, nil)
			continue
		}
		if seen.SeenAndRecord(ctx, r.ReviewID) {
			f.quarantine(ctx, appID, r.ReviewID, reasonDuplicate, nil)
			continue
		}
		reviews = append(reviews, f.normalize(appID, r, fetchedAt))
	}
	return reviews, nil
}

func (f *Fetcher) normalize(appID string, r RawReview, fetchedAt time.Time) model.Review {
	rev := model.Review{
		ID:        r.ReviewID,
		AppID:     appID,
		Rating:    r.Score,
		Text:      f.clean(r.Content),
		PostedAt:  r.At.UTC(),
		FetchedAt: fetchedAt,
		ThumbsUp:  r.ThumbsUpCount,
	}
	if r.ReviewCreatedVersion != nil {
		rev.Version = strings.TrimSpace(*r.ReviewCreatedVersion)
	}
	if r.ReplyContent != nil && strings.TrimSpace(*r.ReplyContent) != "" {
		rev.Reply = &model.DeveloperReply{Text: f.clean(*r.ReplyContent)}
		if r.RepliedAt != nil {
			rev.Reply.RepliedAt = r.RepliedAt.UTC()
		}
	}
	return rev
}

// clean strips markup and collapses whitespace.
func (f *Fetcher) clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(f.policy.Sanitize(s))), " ")
}

func (f *Fetcher) quarantine(ctx context.Context, appID, reviewID, reason string, err error) {
	metrics.RecordQuarantinedReview(reason)
	fields := []logger.Field{
		logger.String("app_id", appID),
		logger.String("review_id", reviewID),
		logger.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	f.log.Warn(ctx, "quarantined review record", fields...)
}
