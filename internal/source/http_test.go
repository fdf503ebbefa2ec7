package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
)

func newTestHTTPSource(t *testing.T, h http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewHTTPSource(HTTPConfig{BaseURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewHTTPSource_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPSource(HTTPConfig{}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestHTTPSource_ReadBulkFollowsPages(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/records/Steps" || r.URL.Query().Get("until") != "1700000000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Query().Get("page_token") {
		case "":
			io.WriteString(w, `{"records":[{"id":"a","fields":{"count":1}},{"id":"b","fields":{"count":2}}],"next_page_token":"p2"}`)
		case "p2":
			io.WriteString(w, `{"records":[{"id":"c","origin":"com.other","fields":{"count":3}}]}`)
		}
	})

	recs, err := s.ReadBulk(context.Background(), record.KindSteps, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatal(err)
	}

	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if recs[i].ID != want {
			t.Errorf("recs[%d].ID = %s, want %s", i, recs[i].ID, want)
		}
	}
	if recs[2].Origin != "com.other" {
		t.Errorf("Origin = %q", recs[2].Origin)
	}
	if len(seen) != 2 {
		t.Errorf("requests = %v, want 2", seen)
	}
}

func TestHTTPSource_GetChangeToken(t *testing.T) {
	s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method != http.MethodPost || !strings.Contains(string(body), `"Steps"`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"token":"tok-1"}`)
	})

	tok, err := s.GetChangeToken(context.Background(), []record.Kind{record.KindSteps, record.KindWeight})
	if err != nil {
		t.Fatal(err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q, want tok-1", tok)
	}
}

func TestHTTPSource_PollChanges(t *testing.T) {
	s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"changes":[
			{"operation":"upsert","kind":"Steps","id":"a","origin":"com.other","fields":{"count":1}},
			{"operation":"delete","id":"b"}
		],"next_token":"tok-2","has_more":true}`)
	})

	batch, err := s.PollChanges(context.Background(), "tok-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Changes) != 2 || batch.NextToken != "tok-2" || !batch.HasMore {
		t.Fatalf("batch = %+v", batch)
	}
	if batch.Changes[0].Operation != OperationUpsert || batch.Changes[0].Kind != record.KindSteps {
		t.Errorf("change[0] = %+v", batch.Changes[0])
	}
	if batch.Changes[1].Operation != OperationDelete || batch.Changes[1].ID != "b" {
		t.Errorf("change[1] = %+v", batch.Changes[1])
	}
}

func TestHTTPSource_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrPermissionDenied},
		{http.StatusForbidden, ErrPermissionDenied},
		{http.StatusGone, ErrTokenExpired},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := s.PollChanges(context.Background(), "t")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHTTPSource_OtherClientErrorIsNotSystemic(t *testing.T) {
	s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad kind", http.StatusBadRequest)
	})

	_, err := s.ReadBulk(context.Background(), record.KindSteps, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsSystemic(err) || errors.Is(err, ErrPermissionDenied) {
		t.Errorf("unexpected classification: %v", err)
	}
	if !strings.Contains(err.Error(), "bad kind") {
		t.Errorf("error should carry the body: %v", err)
	}
}

func TestHTTPSource_UnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, err := NewHTTPSource(HTTPConfig{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.GetChangeToken(context.Background(), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPSource_MalformedBodyIsUnavailable(t *testing.T) {
	s := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"changes": [`)
	})

	_, err := s.PollChanges(context.Background(), "t")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
