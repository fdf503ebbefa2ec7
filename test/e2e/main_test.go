package e2e

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	healthcacheBin = envOrLookPath("HEALTHCACHE_BIN", "healthcache")
	os.Exit(m.Run())
}
