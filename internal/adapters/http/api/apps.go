package api

import (
	"net/http"

	"github.com/okian/sentiscan/internal/domain/types"
)

// AppsDependencies exposes the app catalogue.
type AppsDependencies interface {
	Apps() []types.App
}

// AppsHandler handles app catalogue requests.
type AppsHandler struct {
	deps AppsDependencies
}

// NewAppsHandler creates a new apps handler.
func NewAppsHandler(deps AppsDependencies) *AppsHandler {
	return &AppsHandler{deps: deps}
}

// HandleGetApps handles GET /apps requests.
func (h *AppsHandler) HandleGetApps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	apps := h.deps.Apps()
	if apps == nil {
		apps = []types.App{}
	}
	writeJSON(w, http.StatusOK, apps)
}
