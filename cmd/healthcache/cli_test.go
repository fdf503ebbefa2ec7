package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/healthcache/internal/api"
	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/query"
	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/record/recordtest"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/syncer"
	"github.com/hyperengineering/healthcache/internal/types"
)

const cliAPIKey = "cli-test-key"

// executeCmd runs the root command with captured output and resets flag
// variables so parsed values do not leak between tests.
func executeCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	oldLogger := slog.Default()
	defer slog.SetDefault(oldLogger)

	syncMode = "auto"
	syncJSONOutput = false
	resetForce = false
	queryServer = ""
	queryAPIKey = ""
	queryJSONOutput = false
	runsLimit = 10

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

// writeSeed writes a memory-source seed file holding recs.
func writeSeed(t *testing.T, recs ...record.Record) string {
	t.Helper()
	seed := map[string]map[record.Kind][]source.BulkRecord{"records": {}}
	for _, rec := range recs {
		fields, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		seed["records"][rec.Kind()] = append(seed["records"][rec.Kind()], source.BulkRecord{
			ID:     rec.Meta().ID,
			Origin: rec.Meta().Origin,
			Fields: fields,
		})
	}
	data, err := json.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// setLocalEnv points configuration at a temp database and a seeded memory
// source.
func setLocalEnv(t *testing.T, seedPath string) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	t.Setenv("HEALTHCACHE_CONFIG_PATH", filepath.Join(dir, "absent.yaml"))
	t.Setenv("HEALTHCACHE_DEV_MODE", "true")
	t.Setenv("HEALTHCACHE_DB_PATH", dbPath)
	t.Setenv("HEALTHCACHE_SNAPSHOT_DIR", dir)
	t.Setenv("HEALTHCACHE_SOURCE_TYPE", "memory")
	t.Setenv("HEALTHCACHE_SOURCE_SEED", seedPath)
	t.Setenv("HEALTHCACHE_LOG_LEVEL", "error")
	return dbPath
}

func countRows(t *testing.T, dbPath string) int64 {
	t.Helper()
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()
	n, err := st.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

func TestSyncCommand_BackfillsFromSeed(t *testing.T) {
	end := time.Now().Add(-time.Hour)
	dbPath := setLocalEnv(t, writeSeed(t,
		recordtest.Steps("a", 10, end),
		recordtest.Sample(record.KindWeight, "w", end),
	))

	stdout, _, err := executeCmd(t, "", "sync", "--json")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	var run types.SyncRun
	if err := json.Unmarshal([]byte(stdout), &run); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if run.Mode != types.SyncModeBackfill || run.Counts.Written != 2 {
		t.Errorf("run = %+v, want a backfill writing 2", run)
	}
	if n := countRows(t, dbPath); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
}

func TestSyncCommand_TextOutput(t *testing.T) {
	setLocalEnv(t, writeSeed(t, recordtest.Steps("a", 10, time.Now().Add(-time.Hour))))

	stdout, _, err := executeCmd(t, "", "sync")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	for _, want := range []string{"Mode:", "backfill", "Written:", "succeeded"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestSyncCommand_UnknownMode(t *testing.T) {
	setLocalEnv(t, "")

	_, _, err := executeCmd(t, "", "sync", "--mode", "turbo")
	if err == nil || !strings.Contains(err.Error(), "unknown sync mode") {
		t.Errorf("error = %v, want unknown sync mode", err)
	}
}

func TestResetCommand(t *testing.T) {
	dbPath := setLocalEnv(t, writeSeed(t, recordtest.Steps("a", 10, time.Now().Add(-time.Hour))))
	if _, _, err := executeCmd(t, "", "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Wrong confirmation aborts
	_, _, err := executeCmd(t, "nope\n", "reset")
	if err == nil {
		t.Fatal("reset with wrong confirmation = nil error")
	}
	if n := countRows(t, dbPath); n != 1 {
		t.Fatalf("rows after aborted reset = %d, want 1", n)
	}

	// Typed confirmation resets
	stdout, _, err := executeCmd(t, "reset\n", "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(stdout, "Cache reset") {
		t.Errorf("stdout = %q", stdout)
	}
	if n := countRows(t, dbPath); n != 0 {
		t.Errorf("rows after reset = %d, want 0", n)
	}
}

// newAPIServer runs the HTTP API in-process over a memory source.
func newAPIServer(t *testing.T, recs ...record.Record) string {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	src := source.NewMemorySource(0)
	for _, rec := range recs {
		if err := src.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	reg := registry.Default()
	c := codec.New(reg)
	engine := syncer.New(st, src, c, syncer.Config{})
	if _, err := engine.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	h := api.NewHandler(query.NewService(st, c), engine, st, reg, api.Options{APIKey: cliAPIKey})
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestQueryCommands(t *testing.T) {
	end := time.Now().Add(-time.Hour)
	url := newAPIServer(t,
		recordtest.Steps("a", 75, end),
		recordtest.Sample(record.KindRestingHeartRate, "rhr", end),
	)
	base := []string{"--server", url, "--api-key", cliAPIKey}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"kinds", []string{"query", "kinds"}, []string{"KIND", "Steps", "SleepSession"}},
		{"latest", []string{"query", "latest", "Steps"}, []string{"75 steps"}},
		{"latest no data", []string{"query", "latest", "Weight"}, []string{"no data"}},
		{"nutrition", []string{"query", "nutrition", "protein"}, []string{"0.000 g"}},
		{"categories", []string{"query", "category"}, []string{"heart", "Heart"}},
		{"category", []string{"query", "category", "heart"}, []string{"Heart", "54 bpm"}},
		{"status", []string{"query", "status"}, []string{"Records:", "2", "Cursor:", "yes"}},
		{"runs", []string{"query", "runs"}, []string{"backfill", "succeeded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCmd(t, "", append(tt.args, base...)...)
			if err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestQueryCommands_JSON(t *testing.T) {
	url := newAPIServer(t, recordtest.Steps("a", 75, time.Now().Add(-time.Hour)))

	stdout, _, err := executeCmd(t, "", "query", "latest", "Steps", "--json", "--server", url, "--api-key", cliAPIKey)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	var p types.PointResponse
	if err := json.Unmarshal([]byte(stdout), &p); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if p.Value == nil || *p.Value != "75" {
		t.Errorf("point = %+v", p)
	}
}

func TestQueryCommands_Errors(t *testing.T) {
	url := newAPIServer(t)

	_, _, err := executeCmd(t, "", "query", "latest", "Teleportation", "--server", url, "--api-key", cliAPIKey)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("unknown kind error = %v, want a 404", err)
	}

	_, _, err = executeCmd(t, "", "query", "kinds", "--server", url, "--api-key", "wrong")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("bad key error = %v, want a 401", err)
	}
}
