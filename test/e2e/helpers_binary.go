//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/hyperengineering/healthcache/internal/record"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/pkg/client"
)

// requireHealthcache skips the test when no healthcache binary is available.
func requireHealthcache(t *testing.T) {
	t.Helper()
	if healthcacheBin == "" {
		t.Skip("healthcache binary not found (set HEALTHCACHE_BIN or add to PATH)")
	}
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// writeSeedFile writes a memory-source seed holding recs.
func writeSeedFile(t *testing.T, dir string, recs ...record.Record) string {
	t.Helper()
	seed := map[string]map[record.Kind][]source.BulkRecord{"records": {}}
	for _, rec := range recs {
		fields, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		meta := rec.Meta()
		seed["records"][rec.Kind()] = append(seed["records"][rec.Kind()], source.BulkRecord{
			ID:     meta.ID,
			Origin: meta.Origin,
			Fields: fields,
		})
	}
	data, err := json.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// startServer runs the healthcache binary against a seeded memory source and
// returns its base URL once healthy. The process is stopped on cleanup.
func startServer(t *testing.T, recs ...record.Record) string {
	t.Helper()
	requireHealthcache(t)

	dir := t.TempDir()
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, healthcacheBin)
	cmd.Env = append(os.Environ(),
		"HEALTHCACHE_CONFIG_PATH="+filepath.Join(dir, "absent.yaml"),
		"HEALTHCACHE_PORT="+strconv.Itoa(port),
		"HEALTHCACHE_API_KEY="+testAPIKey,
		"HEALTHCACHE_DB_PATH="+filepath.Join(dir, "cache.db"),
		"HEALTHCACHE_SNAPSHOT_DIR="+dir,
		"HEALTHCACHE_SOURCE_TYPE=memory",
		"HEALTHCACHE_SOURCE_SEED="+writeSeedFile(t, dir, recs...),
		"HEALTHCACHE_SYNC_ENABLED=true",
		"HEALTHCACHE_SYNC_INTERVAL=1h",
		"HEALTHCACHE_LOG_LEVEL=debug",
	)
	var logs bytes.Buffer
	cmd.Stdout = &logs
	cmd.Stderr = &logs

	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("start healthcache: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = cmd.Wait()
		if t.Failed() {
			t.Logf("healthcache output:\n%s", logs.String())
		}
	})

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitHealthy(t, newClient(t, baseURL, testAPIKey), 15*time.Second)
	return baseURL
}

func newClient(t *testing.T, baseURL, apiKey string) *client.Client {
	t.Helper()
	c, err := client.New(client.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c
}

// waitHealthy polls the health endpoint until it answers.
func waitHealthy(t *testing.T, c *client.Client, timeout time.Duration) {
	t.Helper()
	ok := eventually(t, timeout, func() bool {
		_, err := c.Health(context.Background())
		return err == nil
	})
	if !ok {
		t.Fatalf("healthcache did not become healthy within %s", timeout)
	}
}
