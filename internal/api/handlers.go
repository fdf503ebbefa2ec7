package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/hyperengineering/healthcache/internal/query"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/snapshot"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/syncer"
	"github.com/hyperengineering/healthcache/internal/types"
)

// SyncEngine is the part of the sync engine the API drives.
type SyncEngine interface {
	Sync(ctx context.Context) (*types.SyncRun, error)
	Backfill(ctx context.Context) (*types.SyncRun, error)
	Reconcile(ctx context.Context) (*types.SyncRun, error)
	Status(ctx context.Context) (*syncer.Status, error)
}

// Options carries the optional parts of a Handler.
type Options struct {
	APIKey   string
	Version  string
	Uploader snapshot.Uploader

	// Metrics mounts /metrics when true.
	Metrics bool

	// SyncBurst and SyncEvery bound POST /sync. Zero values use 5 and 10s.
	SyncBurst int
	SyncEvery time.Duration
}

// Handler serves the cache's HTTP API.
type Handler struct {
	query    *query.Service
	engine   SyncEngine
	store    store.Store
	reg      *registry.Registry
	uploader snapshot.Uploader
	apiKey   string
	version  string
	metrics  bool
	syncRate *RateLimiter
}

// NewHandler creates a new API handler.
func NewHandler(q *query.Service, engine SyncEngine, st store.Store, reg *registry.Registry, opts Options) *Handler {
	uploader := opts.Uploader
	if uploader == nil {
		uploader = &snapshot.NoopUploader{}
	}
	burst, every := opts.SyncBurst, opts.SyncEvery
	if burst <= 0 {
		burst = 5
	}
	if every <= 0 {
		every = 10 * time.Second
	}
	return &Handler{
		query:    q,
		engine:   engine,
		store:    st,
		reg:      reg,
		uploader: uploader,
		apiKey:   opts.APIKey,
		version:  opts.Version,
		metrics:  opts.Metrics,
		syncRate: NewRateLimiter(burst, every),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context())
	if err != nil {
		slog.Error("health check failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Cache storage unavailable")
		return
	}

	resp := types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		RecordCount: st.RecordCount,
		HasCursor:   st.HasCursor,
	}
	if st.LastRun != nil {
		finished := st.LastRun.FinishedAt
		resp.LastSync = &finished
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListKinds handles GET /api/v1/kinds
func (h *Handler) ListKinds(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByKind(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}

	kinds := h.reg.AllKinds()
	resp := types.KindsResponse{Kinds: make([]types.KindInfo, 0, len(kinds))}
	for _, k := range kinds {
		e, err := h.reg.Resolve(k)
		if err != nil {
			continue
		}
		resp.Kinds = append(resp.Kinds, types.KindInfo{
			Kind:      string(k),
			Label:     e.Label,
			Unit:      e.Unit,
			Scalar:    e.Scalar(),
			CachedRow: counts[k],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestPoint handles GET /api/v1/kinds/{kind}/latest
func (h *Handler) LatestPoint(w http.ResponseWriter, r *http.Request) {
	kind := record.Kind(chi.URLParam(r, "kind"))

	p, err := h.query.LatestPoint(r.Context(), kind)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.query.PointResponse(kind, p))
}

// DailyAggregate handles GET /api/v1/nutrition/{nutrient}
func (h *Handler) DailyAggregate(w http.ResponseWriter, r *http.Request) {
	nutrient := record.Nutrient(chi.URLParam(r, "nutrient"))

	agg, err := h.query.DailyAggregate(r.Context(), nutrient)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, query.AggregateResponse(agg))
}

// ListCategories handles GET /api/v1/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.reg.Categories()
	resp := types.CategoriesResponse{Categories: make([]types.CategorySummary, 0, len(cats))}
	for _, c := range cats {
		title, _ := h.reg.CategoryTitle(c)
		cards, _ := h.reg.ByCategory(c)
		resp.Categories = append(resp.Categories, types.CategorySummary{
			Category: string(c),
			Title:    title,
			Cards:    len(cards),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Category handles GET /api/v1/categories/{category}
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	c := registry.Category(chi.URLParam(r, "category"))

	view, err := h.query.Category(r.Context(), c)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.query.CategoryResponse(view))
}

// Snapshot handles GET /api/v1/snapshot. With object storage configured it
// returns a presigned URL; otherwise it streams the local snapshot file.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	url, expires, err := h.uploader.PresignedURL(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, types.SnapshotResponse{URL: url, ExpiresAt: expires})
		return
	}
	if !errors.Is(err, snapshot.ErrNotConfigured) {
		slog.Error("presign snapshot failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Snapshot storage unavailable")
		return
	}

	path, err := h.store.GetSnapshotPath(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", snapshot.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
