package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedFS_ContainsMigrationFiles(t *testing.T) {
	// Given: The embedded filesystem
	// When: We read the directory
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	// Then: It contains every schema migration in order
	want := []string{"001_initial_schema.sql", "002_sync_runs.sql"}
	var got []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".sql") {
			got = append(got, entry.Name())
		}
	}
	if len(got) != len(want) {
		t.Fatalf("migrations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("migration %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEmbeddedFS_MigrationFilesHaveGooseDirectives(t *testing.T) {
	for _, name := range []string{"001_initial_schema.sql", "002_sync_runs.sql"} {
		// Given: A migration file
		content, err := FS.ReadFile(name)
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}

		// Then: It contains goose directives
		s := string(content)
		if !strings.Contains(s, "-- +goose Up") {
			t.Errorf("%s missing '-- +goose Up' directive", name)
		}
		if !strings.Contains(s, "-- +goose Down") {
			t.Errorf("%s missing '-- +goose Down' directive", name)
		}
	}
}

func TestEmbeddedFS_InitialSchemaCreatesRecords(t *testing.T) {
	content, err := FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "CREATE TABLE records") {
		t.Error("migration missing records table creation")
	}
	if !strings.Contains(string(content), "idx_records_kind_seq") {
		t.Error("migration missing kind index")
	}
}
