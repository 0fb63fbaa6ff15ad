package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/storage/sqlite"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewSQLiteRepository(store)
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)

	if _, found, err := repo.Get(ctx, 1); err != nil || found {
		t.Fatalf("expected no config, got found=%t err=%v", found, err)
	}

	first := domain.Config{PublicChannelID: 1234567890123456789, PublicMessage: "Hi <user>", PrivateMessage: ""}
	if err := repo.Save(ctx, 1, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := domain.Config{PrivateMessage: "psst"}
	if err := repo.Save(ctx, 1, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, found, err := repo.Get(ctx, 1)
	if err != nil || !found {
		t.Fatalf("expected config, got found=%t err=%v", found, err)
	}
	if got != second {
		t.Errorf("expected %+v, got %+v", second, got)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	if err := repo.Save(ctx, 7, domain.Config{PrivateMessage: "hi"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := repo.Delete(ctx, 7)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got deleted=%t err=%v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, 7)
	if err != nil || deleted {
		t.Errorf("expected nothing to delete, got deleted=%t err=%v", deleted, err)
	}
}
