package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// AnalyzeDependencies runs the single-period pipeline.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, appRef string, dr types.DateRange) (model.PeriodResult, error)
}

// AnalyzeHandler handles single-period analysis requests.
type AnalyzeHandler struct {
	deps AnalyzeDependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// HandleAnalyze handles GET /analyze?app_id=&start=&end= requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	appRef, err := appParam(r)
	if err != nil {
		writeFailure(w, badRequest(op, err))
		return
	}
	dr, err := parseRange(r, "start", "end")
	if err != nil {
		writeFailure(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := h.deps.Analyze(ctx, appRef, dr)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalyzeResponse(res))
}

func appParam(r *http.Request) (string, error) {
	ref := strings.TrimSpace(r.URL.Query().Get("app_id"))
	if ref == "" {
		return "", errors.New("app_id is required")
	}
	return ref, nil
}
