package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty BaseURL = nil error")
	}
}

func TestLatest_SendsAuthAndDecodes(t *testing.T) {
	var gotPath, gotAuth string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind":"Steps","label":"Steps","value":"75","unit":"steps","timestamp":"2023-11-14T22:13:20Z"}`))
	})

	p, err := c.Latest(context.Background(), "Steps")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if gotPath != "/api/v1/kinds/Steps/latest" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("auth = %q", gotAuth)
	}
	if p.Value == nil || *p.Value != "75" || p.Timestamp == nil {
		t.Errorf("point = %+v", p)
	}
}

func TestSync_PassesMode(t *testing.T) {
	var gotMethod, gotMode string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotMode = r.Method, r.URL.Query().Get("mode")
		w.Write([]byte(`{"id":"01HZX0000000000000000000AA","mode":"backfill","outcome":"succeeded","counts":{"written":3}}`))
	})

	run, err := c.Sync(context.Background(), "backfill")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if gotMethod != http.MethodPost || gotMode != "backfill" {
		t.Errorf("request = %s mode=%q", gotMethod, gotMode)
	}
	if run.Counts.Written != 3 {
		t.Errorf("written = %d, want 3", run.Counts.Written)
	}
}

func TestProblemBecomesAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"type":"https://healthcache.dev/errors/not-found","title":"Not Found","status":404,"detail":"Unknown nutrient"}`))
	})

	_, err := c.Nutrition(context.Background(), "unobtainium")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Problem.Detail != "Unknown nutrient" {
		t.Errorf("detail = %q", apiErr.Problem.Detail)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false")
	}
}

func TestGet_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"healthy","version":"dev","record_count":0,"has_cursor":false,"last_sync":null}`))
	})
	c.retries = 3

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" || calls.Load() != 3 {
		t.Errorf("status = %q after %d calls, want healthy after 3", h.Status, calls.Load())
	}
}

func TestSync_NotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.retries = 3

	if _, err := c.Sync(context.Background(), ""); err == nil {
		t.Fatal("Sync() = nil error, want 503")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
