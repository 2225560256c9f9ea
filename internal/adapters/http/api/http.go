// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AppsDependencies
	AnalyzeDependencies
	CompareDependencies
	VersionsDependencies
	SnapshotDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	appsHandler      *AppsHandler
	analyzeHandler   *AnalyzeHandler
	compareHandler   *CompareHandler
	versionsHandler  *VersionsHandler
	snapshotsHandler *SnapshotsHandler
	dashboardHandler *dashboardHandler
	log              logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		appsHandler:      NewAppsHandler(deps),
		analyzeHandler:   NewAnalyzeHandler(deps),
		compareHandler:   NewCompareHandler(deps),
		versionsHandler:  NewVersionsHandler(deps),
		snapshotsHandler: NewSnapshotsHandler(deps),
		dashboardHandler: newdashboardHandler(),
		log:              log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestID(AccessLog(MetricsMiddleware(h, endpoint), s.log))
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/apps", wrap(s.appsHandler.HandleGetApps, "apps"))
	mux.HandleFunc("/analyze", wrap(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/compare", wrap(s.compareHandler.HandleCompare, "compare"))
	mux.HandleFunc("/compare/apps", wrap(s.compareHandler.HandleCompareApps, "compare_apps"))
	mux.HandleFunc("/versions", wrap(s.versionsHandler.HandleVersions, "versions"))
	mux.HandleFunc("/snapshots", wrap(s.snapshotsHandler.HandleSnapshots, "snapshots"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// analyzeResponse mirrors model.PeriodResult with a date-only range.
type analyzeResponse struct {
	AppID     string               `json:"app_id"`
	Start     string               `json:"start"`
	End       string               `json:"end"`
	Metrics   model.Metrics        `json:"metrics"`
	Summaries []model.ThemeSummary `json:"summaries"`
}

func newAnalyzeResponse(p model.PeriodResult) analyzeResponse {
	summaries := p.Summaries
	if summaries == nil {
		summaries = []model.ThemeSummary{}
	}
	return analyzeResponse{
		AppID:     p.AppID,
		Start:     types.FormatDate(p.Range.Start),
		End:       types.FormatDate(p.Range.End),
		Metrics:   p.Metrics,
		Summaries: summaries,
	}
}

// compareResponse serves both comparison kinds; app_id is omitted when the
// two sides are different apps.
type compareResponse struct {
	Kind         string             `json:"kind"`
	AppID        string             `json:"app_id,omitempty"`
	A            analyzeResponse    `json:"a"`
	B            analyzeResponse    `json:"b"`
	Delta        model.MetricsDelta `json:"delta"`
	DeltaSummary string             `json:"delta_summary"`
}

func newCompareResponse(res *model.ComparisonResult) compareResponse {
	return compareResponse{
		Kind:         res.Kind,
		AppID:        res.AppID,
		A:            newAnalyzeResponse(res.A),
		B:            newAnalyzeResponse(res.B),
		Delta:        res.Delta,
		DeltaSummary: res.DeltaSummary.Text,
	}
}

type versionsResponse struct {
	AppID    string              `json:"app_id"`
	Start    string              `json:"start"`
	End      string              `json:"end"`
	Versions []model.VersionStat `json:"versions"`
}

type versionCompareResponse struct {
	AppID string               `json:"app_id"`
	Start string               `json:"start"`
	End   string               `json:"end"`
	A     model.VersionMetrics `json:"a"`
	B     model.VersionMetrics `json:"b"`
	Delta model.MetricsDelta   `json:"delta"`
}

type clearResponse struct {
	Deleted int `json:"deleted"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error body.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// parseRange reads a YYYY-MM-DD pair from the query string.
func parseRange(r *http.Request, startKey, endKey string) (types.DateRange, error) {
	q := r.URL.Query()
	start, end := q.Get(startKey), q.Get(endKey)
	if start == "" || end == "" {
		return types.DateRange{}, badRequest("parse range", fmt.Errorf("%s and %s are required", startKey, endKey))
	}
	return types.ParseDateRange(start, end)
}

// requestTimeout bounds a single analyze or compare call.
const requestTimeout = 5 * time.Minute
