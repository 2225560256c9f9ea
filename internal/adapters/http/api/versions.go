package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// VersionsDependencies serves the release timeline and version comparison.
type VersionsDependencies interface {
	Versions(ctx context.Context, appRef string, dr types.DateRange) ([]model.VersionStat, error)
	CompareVersions(ctx context.Context, appRef string, dr types.DateRange, va, vb string) (*model.VersionComparison, error)
}

// VersionsHandler handles version timeline requests.
type VersionsHandler struct {
	deps VersionsDependencies
}

// NewVersionsHandler creates a new versions handler.
func NewVersionsHandler(deps VersionsDependencies) *VersionsHandler {
	return &VersionsHandler{deps: deps}
}

// HandleVersions handles GET /versions?app_id=&start=&end= requests. With
// a= and b= it compares those two versions instead.
func (h *VersionsHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	const op = "api.versions"
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
	q := r.URL.Query()
	va, vb := strings.TrimSpace(q.Get("a")), strings.TrimSpace(q.Get("b"))
	if (va == "") != (vb == "") {
		writeFailure(w, badRequest(op, errors.New("a and b must be given together")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if va != "" {
		res, err := h.deps.CompareVersions(ctx, appRef, dr, va, vb)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, versionCompareResponse{
			AppID: res.AppID,
			Start: types.FormatDate(res.Range.Start),
			End:   types.FormatDate(res.Range.End),
			A:     res.A,
			B:     res.B,
			Delta: res.Delta,
		})
		return
	}

	stats, err := h.deps.Versions(ctx, appRef, dr)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if stats == nil {
		stats = []model.VersionStat{}
	}
	writeJSON(w, http.StatusOK, versionsResponse{
		AppID:    appRef,
		Start:    types.FormatDate(dr.Start),
		End:      types.FormatDate(dr.End),
		Versions: stats,
	})
}
