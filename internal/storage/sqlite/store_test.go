package sqlite

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, table := range []string{"greetings", "reaction_roles", migrationTable} {
		var name string
		err := store.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.DB().QueryRow("SELECT COUNT(*) FROM " + migrationTable).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 recorded migrations, got %d", count)
	}
}

func TestApplyMigrationsRunsEachFileOnce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	migrations := fstest.MapFS{
		"100_counter.sql": {Data: []byte(`-- +migrate Up
CREATE TABLE counter (n INTEGER);
INSERT INTO counter (n) VALUES (1);
-- +migrate Down
DROP TABLE counter;
`)},
		"README.md": {Data: []byte("ignored")},
	}

	for range 2 {
		if err := applyMigrations(store.DB(), migrations, "."); err != nil {
			t.Fatalf("apply migrations: %v", err)
		}
	}

	var rows int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM counter").Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected the migration to run once, got %d rows", rows)
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a (x);", "CREATE TABLE a (x);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a (x);", "\nCREATE TABLE a (x);"},
		{"up and down", "-- +migrate Up\nA;\n-- +migrate Down\nB;", "\nA;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upSection(tt.content); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIDRoundTrip(t *testing.T) {
	const id = 1234567890123456789
	if got := FromID(ID(id)); got != id {
		t.Errorf("expected %d, got %d", uint64(id), got)
	}
}
