// Package snapshots serves per-day review snapshots, fetching each
// (app, date) at most once and reusing the stored copy afterwards.
package snapshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/sentiscan/internal/adapters/repository"
	"github.com/okian/sentiscan/internal/domain/dedupe"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

const defaultConcurrency = 4

// DefaultMaxRangeDays is the Range cap when none is configured.
const DefaultMaxRangeDays = 92

// Fetcher delivers validated reviews posted on one day.
type Fetcher interface {
	Fetch(ctx context.Context, appID string, date time.Time) ([]model.Review, error)
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithConcurrency bounds parallel date fetches in Range.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxRangeDays caps how many days one Range may span. Zero or less
// removes the cap.
func WithMaxRangeDays(n int) Option {
	return func(s *Store) {
		s.maxRangeDays = n
	}
}

// WithDayCap declares the most reviews a single snapshot can hold. Range
// then bounds its dedupe window to dayCap × days.
func WithDayCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.dayCap = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store is the snapshot cache in front of the review collaborator.
type Store struct {
	repo         repository.SnapshotStore
	fetcher      Fetcher
	group        singleflight.Group
	concurrency  int
	maxRangeDays int
	dayCap       int
	now          func() time.Time
	log          logger.Logger
}

// New creates a Store over repo and fetcher.
func New(repo repository.SnapshotStore, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		repo:         repo,
		fetcher:      fetcher,
		concurrency:  defaultConcurrency,
		maxRangeDays: DefaultMaxRangeDays,
		now:          time.Now,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrFetch returns the snapshot for (appID, date). A stored snapshot is
// returned without touching the fetcher; otherwise the fetcher is called,
// the result persisted and returned. Collaborator failures come back as
// *model.FetchError and leave nothing stored.
func (s *Store) GetOrFetch(ctx context.Context, appID string, date time.Time) (model.Snapshot, error) {
	day := types.Day(date)
	if day.After(types.Day(s.now())) {
		return model.Snapshot{}, fmt.Errorf("%w: %s", types.ErrFutureDate, types.FormatDate(day))
	}
	dateKey := types.FormatDate(day)

	snap, err := s.repo.GetSnapshot(ctx, appID, dateKey)
	if err == nil {
		metrics.RecordSnapshotHit()
		return snap, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Snapshot{}, fmt.Errorf("load snapshot %s/%s: %w", appID, dateKey, err)
	}

	key := model.SnapshotKey{AppID: appID, Date: dateKey}.String()
	ch := s.group.DoChan(key, func() (any, error) {
		// The first caller leaving must not abort the fetch for the others.
		return s.fetchAndStore(context.WithoutCancel(ctx), appID, day)
	})
	select {
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Snapshot{}, res.Err
		}
		return res.Val.(model.Snapshot), nil
	}
}

func (s *Store) fetchAndStore(ctx context.Context, appID string, day time.Time) (model.Snapshot, error) {
	dateKey := types.FormatDate(day)

	// A coalesced caller may arrive after the previous flight stored it.
	if snap, err := s.repo.GetSnapshot(ctx, appID, dateKey); err == nil {
		metrics.RecordSnapshotHit()
		return snap, nil
	}
	metrics.RecordSnapshotMiss()

	start := time.Now()
	reviews, err := s.fetcher.Fetch(ctx, appID, day)
	latency := float64(time.Since(start).Milliseconds())
	metrics.RecordFetchLatency(latency)
	if err != nil {
		metrics.RecordFetchError()
		metrics.RecordErrorLatency("snapshots", "fetch_failed", latency)
		s.log.Error(ctx, "review fetch failed",
			logger.String("app_id", appID), logger.String("date", dateKey), logger.Error(err))
		return model.Snapshot{}, &model.FetchError{AppID: appID, Date: dateKey, Err: err}
	}

	snap := model.Snapshot{AppID: appID, Date: dateKey, FetchedAt: s.now().UTC(), Reviews: reviews}
	written, err := s.repo.PutSnapshot(ctx, snap)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("persist snapshot %s/%s: %w", appID, dateKey, err)
	}
	if !written {
		// Another writer won; serve what is on disk.
		return s.repo.GetSnapshot(ctx, appID, dateKey)
	}
	s.log.Info(ctx, "snapshot fetched",
		logger.String("app_id", appID), logger.String("date", dateKey), logger.Int("reviews", len(reviews)))
	return snap, nil
}

// Check rejects a range Range would refuse, before anything is fetched:
// an empty range, one longer than the configured cap, or one ending after
// today.
func (s *Store) Check(dr types.DateRange) error {
	days := dr.Days()
	if days == 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidRange, dr)
	}
	if s.maxRangeDays > 0 && days > s.maxRangeDays {
		return fmt.Errorf("%w: %s spans %d days, at most %d allowed", types.ErrRangeTooLong, dr, days, s.maxRangeDays)
	}
	if dr.End.After(types.Day(s.now())) {
		return fmt.Errorf("%w: %s", types.ErrFutureDate, types.FormatDate(dr.End))
	}
	return nil
}

// Range returns the reviews of every day in dr, in date order, with
// duplicate review IDs removed. The range is checked first, so an invalid
// one never reaches the fetcher. Days are fetched in parallel up to the
// configured concurrency. The first failure is returned; snapshots already
// stored by other days stay stored.
func (s *Store) Range(ctx context.Context, appID string, dr types.DateRange) ([]model.Review, error) {
	if err := s.Check(dr); err != nil {
		return nil, err
	}
	dates := dr.Dates()

	snaps := make([]model.Snapshot, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range dates {
		g.Go(func() error {
			snap, err := s.GetOrFetch(gctx, appID, d)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Review
	for _, snap := range snaps {
		all = append(all, snap.Reviews...)
	}
	var opts []dedupe.Option
	if s.dayCap > 0 {
		opts = append(opts, dedupe.WithMaxSize(s.dayCap*len(dates)))
	}
	return dedupe.Reviews(ctx, all, opts...), nil
}

// List returns stored snapshot keys for appID, or all when appID is empty.
func (s *Store) List(ctx context.Context, appID string) ([]model.SnapshotKey, error) {
	keys, err := s.repo.ListSnapshots(ctx, appID)
	if err != nil {
		return nil, err
	}
	if appID == "" {
		metrics.UpdateStoredSnapshots(len(keys))
	}
	return keys, nil
}

// Clear deletes stored snapshots for appID, or all when appID is empty.
func (s *Store) Clear(ctx context.Context, appID string) (int, error) {
	n, err := s.repo.DeleteSnapshots(ctx, appID)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "snapshots cleared", logger.String("app_id", appID), logger.Int("removed", n))
	if keys, err := s.repo.ListSnapshots(ctx, ""); err == nil {
		metrics.UpdateStoredSnapshots(len(keys))
	}
	return n, nil
}
