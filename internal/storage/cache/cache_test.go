package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type entry struct {
	Name  string
	Count int
}

func newTestCache(t *testing.T) *Cache[entry] {
	t.Helper()
	c, err := New[entry](context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRejectsNonPositiveTTL(t *testing.T) {
	if _, err := New[entry](context.Background(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestGetOrLoad(t *testing.T) {
	c := newTestCache(t)
	loads := 0
	load := func(context.Context) (entry, error) {
		loads++
		return entry{Name: "guild", Count: loads}, nil
	}

	first, err := c.GetOrLoad(context.Background(), "1", load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.GetOrLoad(context.Background(), "1", load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}
	if first != second {
		t.Errorf("expected cached value %+v, got %+v", first, second)
	}
}

func TestGetOrLoadErrorIsNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "1", func(context.Context) (entry, error) {
		return entry{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	got, err := c.GetOrLoad(context.Background(), "1", func(context.Context) (entry, error) {
		return entry{Name: "ok"}, nil
	})
	if err != nil || got.Name != "ok" {
		t.Errorf("expected a fresh load, got %+v (%v)", got, err)
	}
}

func TestUpdateInvalidates(t *testing.T) {
	c := newTestCache(t)
	stored := entry{Name: "old"}
	load := func(context.Context) (entry, error) { return stored, nil }

	if _, err := c.GetOrLoad(context.Background(), "1", load); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Update("1", func() error {
		stored = entry{Name: "new"}
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := c.GetOrLoad(context.Background(), "1", load)
	if got.Name != "new" {
		t.Errorf("expected the written value after update, got %+v", got)
	}
}

func TestUpdateReturnsWriteError(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("boom")
	if err := c.Update("1", func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t)
	loads := 0
	load := func(context.Context) (entry, error) {
		loads++
		return entry{Count: loads}, nil
	}

	_, _ = c.GetOrLoad(context.Background(), "1", load)
	c.Invalidate("1")
	c.Invalidate("missing")
	got, _ := c.GetOrLoad(context.Background(), "1", load)

	if got.Count != 2 {
		t.Errorf("expected a reload after invalidation, got %+v", got)
	}
}
