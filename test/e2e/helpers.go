package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/healthcache/internal/api"
	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/query"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/syncer"
	"github.com/hyperengineering/healthcache/internal/worker"
	"github.com/hyperengineering/healthcache/pkg/client"
)

const (
	testAPIKey = "e2e-test-api-key"
	selfOrigin = "com.example.healthcache"
)

// healthcacheBin is the server binary used by the e2e-tagged tests; empty
// when none was found.
var healthcacheBin string

func envOrLookPath(envVar, name string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// harness runs the whole cache in-process: SQLite store, a memory source,
// the sync engine and the HTTP API behind a typed client.
type harness struct {
	t      *testing.T
	dbPath string
	source *source.MemorySource
	store  *store.SQLiteStore
	engine *syncer.Engine
	client *client.Client
	server *httptest.Server
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		dbPath: filepath.Join(t.TempDir(), "cache.db"),
		source: source.NewMemorySource(3),
		now:    time.Now().UTC(),
	}
	h.open()
	t.Cleanup(h.close)
	return h
}

func (h *harness) open() {
	h.t.Helper()
	st, err := store.NewSQLiteStore(h.dbPath)
	if err != nil {
		h.t.Fatalf("NewSQLiteStore: %v", err)
	}
	reg := registry.Default()
	c := codec.New(reg)
	h.store = st
	h.engine = syncer.New(st, h.source, c, syncer.Config{Origin: selfOrigin})

	handler := api.NewHandler(query.NewService(st, c), h.engine, st, reg, api.Options{
		APIKey:    testAPIKey,
		Version:   "e2e",
		SyncBurst: 100,
	})
	h.server = httptest.NewServer(api.NewRouter(handler))

	cl, err := client.New(client.Config{BaseURL: h.server.URL, APIKey: testAPIKey})
	if err != nil {
		h.t.Fatalf("client.New: %v", err)
	}
	h.client = cl
}

func (h *harness) close() {
	if h.server != nil {
		h.server.Close()
		h.server = nil
	}
	if h.store != nil {
		h.store.Close()
		h.store = nil
	}
}

// restart closes the server and store and reopens both on the same file.
func (h *harness) restart() {
	h.t.Helper()
	h.close()
	h.open()
}

func (h *harness) add(recs ...record.Record) {
	h.t.Helper()
	for _, rec := range recs {
		if err := h.source.Add(rec); err != nil {
			h.t.Fatalf("Add(%s): %v", rec.Meta().ID, err)
		}
	}
}

func (h *harness) ids(kind record.Kind) []string {
	h.t.Helper()
	rows, err := h.store.QueryByKind(context.Background(), kind)
	if err != nil {
		h.t.Fatalf("QueryByKind(%s): %v", kind, err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// ago returns a time d before the harness clock.
func (h *harness) ago(d time.Duration) time.Time {
	return h.now.Add(-d)
}

// runWorker runs a sync worker until stop is called.
func (h *harness) runWorker(interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewSyncWorker(h.engine, worker.SyncWorkerConfig{
		Interval:     interval,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     20 * time.Millisecond,
	})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// eventually polls cond until it holds or the timeout passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
