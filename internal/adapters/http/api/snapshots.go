package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
)

// SnapshotDependencies lists and clears stored snapshots.
type SnapshotDependencies interface {
	ResolveApp(ref string) (string, error)
	ListSnapshots(ctx context.Context, appID string) ([]model.SnapshotKey, error)
	ClearSnapshots(ctx context.Context, appID string) (int, error)
}

// SnapshotsHandler handles snapshot inventory requests.
type SnapshotsHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps}
}

// HandleSnapshots handles GET and DELETE /snapshots[?app_id=] requests.
func (h *SnapshotsHandler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.snapshots"
	appID := ""
	if ref := strings.TrimSpace(r.URL.Query().Get("app_id")); ref != "" {
		id, err := h.deps.ResolveApp(ref)
		if err != nil {
			writeFailure(w, badRequest(op, err))
			return
		}
		appID = id
	}

	switch r.Method {
	case http.MethodGet:
		keys, err := h.deps.ListSnapshots(r.Context(), appID)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if keys == nil {
			keys = []model.SnapshotKey{}
		}
		writeJSON(w, http.StatusOK, keys)
	case http.MethodDelete:
		n, err := h.deps.ClearSnapshots(r.Context(), appID)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clearResponse{Deleted: n})
	default:
		http.NotFound(w, r)
	}
}
