package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/healthcache/internal/types"
	"github.com/hyperengineering/healthcache/internal/validation"
)

const (
	syncModeAuto      = "auto"
	defaultRunsLimit  = 20
	maxRunsLimit      = 100
	invalidParamsText = "Request contains invalid parameters"
)

var syncModes = []string{syncModeAuto, string(types.SyncModeBackfill), string(types.SyncModeReconcile)}

// SyncStatus handles GET /api/v1/sync/status
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Response())
}

// TriggerSync handles POST /api/v1/sync?mode=auto|backfill|reconcile. The
// call blocks until the run finishes; concurrent triggers of the same mode
// share one run.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = syncModeAuto
	}

	var v validation.Collector
	v.Add(validation.ValidateEnum("mode", mode, syncModes))
	if v.HasErrors() {
		WriteProblemWithErrors(w, r, invalidParamsText, v.Errors())
		return
	}

	var run func(context.Context) (*types.SyncRun, error)
	switch mode {
	case string(types.SyncModeBackfill):
		run = h.engine.Backfill
	case string(types.SyncModeReconcile):
		run = h.engine.Reconcile
	default:
		run = h.engine.Sync
	}

	result, err := run(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListSyncRuns handles GET /api/v1/sync/runs?limit=N
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit

	var v validation.Collector
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Add(&validation.ValidationError{Field: "limit", Message: "must be an integer"})
		} else {
			v.Add(validation.ValidateRange("limit", float64(n), 1, maxRunsLimit))
			limit = n
		}
	}
	if v.HasErrors() {
		WriteProblemWithErrors(w, r, invalidParamsText, v.Errors())
		return
	}

	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.SyncRunsResponse{Runs: runs})
}

// GetSyncRun handles GET /api/v1/sync/runs/{id}
func (h *Handler) GetSyncRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var v validation.Collector
	v.Add(validation.ValidateULID("id", id))
	if v.HasErrors() {
		WriteProblemWithErrors(w, r, invalidParamsText, v.Errors())
		return
	}

	run, err := h.store.GetSyncRun(r.Context(), id)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
