// Package service wires the stores, collaborators and pipelines behind the
// HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/sentiscan/internal/adapters/llm"
	"github.com/okian/sentiscan/internal/adapters/playstore"
	"github.com/okian/sentiscan/internal/adapters/repository"
	"github.com/okian/sentiscan/internal/app/compare"
	"github.com/okian/sentiscan/internal/app/snapshots"
	"github.com/okian/sentiscan/internal/app/summarizer"
	"github.com/okian/sentiscan/internal/domain/analysis"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/sentiment"
	"github.com/okian/sentiscan/internal/domain/theme"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for sentiscan.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	snapshots    *snapshots.Store
	summarizer   *summarizer.Summarizer
	orchestrator *compare.Orchestrator

	// Collaborators
	source    playstore.Source
	llmClient llm.Client
	scorer    sentiment.Scorer
	clusterer theme.Clusterer

	// Configuration
	backend          string
	dataDir          string
	reviewCount      int
	lang             string
	country          string
	fetchConcurrency int
	maxRangeDays     int
	memoSize         int
	summaryTimeout   time.Duration
	maxTokens        int
	temperature      float64
	apps             map[string]string
	now              func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the repository backend and its data directory.
func WithStorage(backend, dataDir string) Option {
	return func(s *Service) {
		if backend != "" {
			s.backend = backend
		}
		if dataDir != "" {
			s.dataDir = dataDir
		}
	}
}

// WithStore injects an already opened repository. Stop closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSource sets the review scraping collaborator.
func WithSource(src playstore.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithLLM sets the summary collaborator.
func WithLLM(c llm.Client) Option {
	return func(s *Service) {
		s.llmClient = c
	}
}

// WithScorer replaces the sentiment collaborator.
func WithScorer(sc sentiment.Scorer) Option {
	return func(s *Service) {
		s.scorer = sc
	}
}

// WithClusterer replaces the theme strategy.
func WithClusterer(c theme.Clusterer) Option {
	return func(s *Service) {
		s.clusterer = c
	}
}

// WithFetchSettings sets per-day review count, language and country.
func WithFetchSettings(count int, lang, country string) Option {
	return func(s *Service) {
		if count > 0 {
			s.reviewCount = count
		}
		if lang != "" {
			s.lang = lang
		}
		if country != "" {
			s.country = country
		}
	}
}

// WithFetchConcurrency bounds parallel date fetches.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithMaxRangeDays caps the days a single range may span.
func WithMaxRangeDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRangeDays = n
		}
	}
}

// WithSummaryTimeout bounds one shared summary generation.
func WithSummaryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.summaryTimeout = d
		}
	}
}

// WithSummaryMemoSize sets the in-memory summary LRU size.
func WithSummaryMemoSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.memoSize = n
		}
	}
}

// WithGeneration sets LLM max tokens and temperature.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(s *Service) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

// WithApps sets the name → package id catalogue.
func WithApps(apps map[string]string) Option {
	return func(s *Service) {
		if len(apps) > 0 {
			s.apps = apps
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:          repository.BackendFile,
		dataDir:          "data",
		reviewCount:      playstore.DefaultCount,
		lang:             playstore.DefaultLang,
		country:          playstore.DefaultCountry,
		fetchConcurrency: 4,
		maxRangeDays:     snapshots.DefaultMaxRangeDays,
		memoSize:         512,
		maxTokens:        llm.DefaultMaxTokens,
		temperature:      llm.DefaultTemperature,
		apps:             types.DefaultApps(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the repository and builds the pipelines.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.source == nil {
		return fmt.Errorf("start service: review source is required")
	}
	if s.llmClient == nil {
		s.llmClient = llm.Unavailable(llm.ErrMissingAPIKey)
		s.logger.Warn(ctx, "no LLM configured, summaries will fail")
	}

	if s.store == nil {
		store, err := repository.New(ctx, s.backend, s.dataDir,
			repository.WithLogger(s.logger.Named("repository")))
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.backend, err)
		}
		s.store = store
	}

	fetcher := playstore.NewFetcher(s.source,
		playstore.WithCount(s.reviewCount),
		playstore.WithLocale(s.lang, s.country),
		playstore.WithClock(s.now),
		playstore.WithLogger(s.logger.Named("fetcher")),
	)
	s.snapshots = snapshots.New(s.store, fetcher,
		snapshots.WithConcurrency(s.fetchConcurrency),
		snapshots.WithMaxRangeDays(s.maxRangeDays),
		snapshots.WithDayCap(s.reviewCount),
		snapshots.WithClock(s.now),
		snapshots.WithLogger(s.logger.Named("snapshots")),
	)

	sum, err := summarizer.New(s.store, s.llmClient,
		summarizer.WithMemoSize(s.memoSize),
		summarizer.WithGeneration(s.maxTokens, s.temperature),
		summarizer.WithCallTimeout(s.summaryTimeout),
		summarizer.WithClock(s.now),
		summarizer.WithLogger(s.logger.Named("summarizer")),
	)
	if err != nil {
		return err
	}
	s.summarizer = sum

	analyzer := analysis.New(
		analysis.WithScorer(s.scorer),
		analysis.WithClusterer(s.clusterer),
		analysis.WithLogger(s.logger.Named("analysis")),
	)
	s.orchestrator = compare.New(s.snapshots, analyzer, s.summarizer,
		compare.WithLogger(s.logger.Named("compare")))

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "sentiscan service started",
		logger.String("backend", s.backend),
		logger.String("data_dir", s.dataDir),
		logger.Int("review_count", s.reviewCount),
		logger.Int("fetch_concurrency", s.fetchConcurrency),
		logger.Int("max_range_days", s.maxRangeDays),
	)
	return nil
}

// Stop closes the repository.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "sentiscan service stopped")
}

func (s *Service) orch() (*compare.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.orchestrator, nil
}

func (s *Service) snaps() (*snapshots.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.snapshots, nil
}

// Apps returns the configured app catalogue ordered by name.
func (s *Service) Apps() []types.App {
	return types.SortedApps(s.apps)
}

// ResolveApp accepts a catalogue name, a package id or a Play Store URL.
func (s *Service) ResolveApp(ref string) (string, error) {
	if id, ok := s.apps[ref]; ok {
		return id, nil
	}
	return types.ExtractAppID(ref)
}

// Analyze runs the single-range pipeline for appRef.
func (s *Service) Analyze(ctx context.Context, appRef string, dr types.DateRange) (model.PeriodResult, error) {
	o, err := s.orch()
	if err != nil {
		return model.PeriodResult{}, err
	}
	appID, err := s.ResolveApp(appRef)
	if err != nil {
		return model.PeriodResult{}, err
	}
	return o.Analyze(ctx, appID, dr)
}

// Compare contrasts two ranges for appRef.
func (s *Service) Compare(ctx context.Context, appRef string, a, b types.DateRange) (*model.ComparisonResult, error) {
	o, err := s.orch()
	if err != nil {
		return nil, err
	}
	appID, err := s.ResolveApp(appRef)
	if err != nil {
		return nil, err
	}
	return o.Compare(ctx, appID, a, b)
}

// CompareApps contrasts two apps over the same range.
func (s *Service) CompareApps(ctx context.Context, appRefA, appRefB string, dr types.DateRange) (*model.ComparisonResult, error) {
	o, err := s.orch()
	if err != nil {
		return nil, err
	}
	appA, err := s.ResolveApp(appRefA)
	if err != nil {
		return nil, err
	}
	appB, err := s.ResolveApp(appRefB)
	if err != nil {
		return nil, err
	}
	return o.CompareApps(ctx, appA, appB, dr)
}

// Versions returns the release timeline of appRef within dr.
func (s *Service) Versions(ctx context.Context, appRef string, dr types.DateRange) ([]model.VersionStat, error) {
	o, err := s.orch()
	if err != nil {
		return nil, err
	}
	appID, err := s.ResolveApp(appRef)
	if err != nil {
		return nil, err
	}
	return o.Versions(ctx, appID, dr)
}

// CompareVersions contrasts two app versions seen within dr.
func (s *Service) CompareVersions(ctx context.Context, appRef string, dr types.DateRange, va, vb string) (*model.VersionComparison, error) {
	o, err := s.orch()
	if err != nil {
		return nil, err
	}
	appID, err := s.ResolveApp(appRef)
	if err != nil {
		return nil, err
	}
	return o.CompareVersions(ctx, appID, dr, va, vb)
}

// Snapshot returns (fetching if needed) one day's snapshot.
func (s *Service) Snapshot(ctx context.Context, appRef string, date time.Time) (model.Snapshot, error) {
	st, err := s.snaps()
	if err != nil {
		return model.Snapshot{}, err
	}
	appID, err := s.ResolveApp(appRef)
	if err != nil {
		return model.Snapshot{}, err
	}
	return st.GetOrFetch(ctx, appID, date)
}

// ListSnapshots returns stored snapshot keys; appID "" means all apps.
func (s *Service) ListSnapshots(ctx context.Context, appID string) ([]model.SnapshotKey, error) {
	st, err := s.snaps()
	if err != nil {
		return nil, err
	}
	return st.List(ctx, appID)
}

// ClearSnapshots removes stored snapshots; appID "" means all apps.
func (s *Service) ClearSnapshots(ctx context.Context, appID string) (int, error) {
	st, err := s.snaps()
	if err != nil {
		return 0, err
	}
	return st.Clear(ctx, appID)
}

// ClearSummaries removes every persisted summary and empties the memo.
func (s *Service) ClearSummaries(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0, ErrNotStarted
	}
	n, err := s.store.DeleteSummaries(ctx)
	if err != nil {
		return 0, err
	}
	s.summarizer.Purge()
	s.logger.Info(ctx, "summaries cleared", logger.Int("removed", n))
	return n, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	stats := map[string]any{
		"started":           started,
		"backend":           s.backend,
		"review_count":      s.reviewCount,
		"fetch_concurrency": s.fetchConcurrency,
		"max_range_days":    s.maxRangeDays,
		"apps":              len(s.apps),
		"goroutines":        runtime.NumGoroutine(),
	}
	if started {
		stats["uptime_seconds"] = int(s.now().Sub(s.startedAt).Seconds())
	}
	s.mu.RUnlock()

	if started {
		if keys, err := s.ListSnapshots(ctx, ""); err == nil {
			stats["stored_snapshots"] = len(keys)
			perApp := map[string]int{}
			for _, k := range keys {
				perApp[k.AppID]++
			}
			stats["snapshots_by_app"] = perApp
		}
	}
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return stats
}
