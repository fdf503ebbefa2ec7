package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/query"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/snapshot"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/syncer"
	"github.com/hyperengineering/healthcache/internal/validation"
)

const problemBaseURI = "https://healthcache.dev/errors/"

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	slug  string
	title string
}

var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {"bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"unauthorized", "Unauthorized"},
	http.StatusForbidden:           {"forbidden", "Forbidden"},
	http.StatusNotFound:            {"not-found", "Not Found"},
	http.StatusConflict:            {"conflict", "Conflict"},
	http.StatusUnprocessableEntity: {"validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {"rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {"internal-error", "Internal Server Error"},
	http.StatusServiceUnavailable:  {"service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{slug: "unknown", title: http.StatusText(status)}
	}
	return Problem{
		Type:     problemBaseURI + pt.slug,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	p := ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	}
	writeProblemBody(w, http.StatusUnprocessableEntity, p)
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "component", "api", "error", err)
	}
}

// MapError converts a domain error to a Problem Details response. Internal
// error text is never exposed for 5xx responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrNoScalarProjection):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Record kind has no scalar value")
	case errors.Is(err, registry.ErrUnsupportedKind):
		WriteProblem(w, r, http.StatusNotFound, "Unsupported record kind")
	case errors.Is(err, registry.ErrUnknownCategory):
		WriteProblem(w, r, http.StatusNotFound, "Unknown category")
	case errors.Is(err, query.ErrUnknownNutrient):
		WriteProblem(w, r, http.StatusNotFound, "Unknown nutrient")
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, syncer.ErrNoCursor):
		WriteProblem(w, r, http.StatusConflict, "No change cursor; run a backfill first")
	case errors.Is(err, source.ErrPermissionDenied):
		WriteProblem(w, r, http.StatusForbidden, "Health data permission denied")
	case errors.Is(err, source.ErrUnavailable), errors.Is(err, source.ErrTokenExpired):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Health data source unavailable")
	case errors.Is(err, store.ErrSnapshotUnavailable), errors.Is(err, snapshot.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Snapshot not available")
	case errors.Is(err, store.ErrStoreIO):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Cache storage unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Request cancelled")
	case errors.Is(err, codec.ErrCodec):
		slog.Error("cached record failed to decode", "component", "api", "path", r.URL.Path, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	default:
		slog.Error("unmapped error", "component", "api", "path", r.URL.Path, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
