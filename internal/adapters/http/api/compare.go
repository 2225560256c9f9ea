package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// CompareDependencies runs the two-period and the app-vs-app comparisons.
type CompareDependencies interface {
	Compare(ctx context.Context, appRef string, a, b types.DateRange) (*model.ComparisonResult, error)
	CompareApps(ctx context.Context, appRefA, appRefB string, dr types.DateRange) (*model.ComparisonResult, error)
}

// CompareHandler handles period comparison requests.
type CompareHandler struct {
	deps CompareDependencies
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps CompareDependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompare handles GET /compare?app_id=&a_start=&a_end=&b_start=&b_end= requests.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	appRef, err := appParam(r)
	if err != nil {
		writeFailure(w, badRequest(op, err))
		return
	}
	a, err := parseRange(r, "a_start", "a_end")
	if err != nil {
		writeFailure(w, err)
		return
	}
	b, err := parseRange(r, "b_start", "b_end")
	if err != nil {
		writeFailure(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := h.deps.Compare(ctx, appRef, a, b)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompareResponse(res))
}

// HandleCompareApps handles GET /compare/apps?app_a=&app_b=&start=&end= requests.
func (h *CompareHandler) HandleCompareApps(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare_apps"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	appA, appB := strings.TrimSpace(q.Get("app_a")), strings.TrimSpace(q.Get("app_b"))
	if appA == "" || appB == "" {
		writeFailure(w, badRequest(op, errors.New("app_a and app_b are required")))
		return
	}
	dr, err := parseRange(r, "start", "end")
	if err != nil {
		writeFailure(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := h.deps.CompareApps(ctx, appA, appB, dr)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompareResponse(res))
}
