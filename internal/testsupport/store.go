package testsupport

import (
	"context"
	"testing"

	"gdcmeta/internal/config"
	"gdcmeta/internal/gdccache"
	"gdcmeta/internal/record"
)

// MustOpenCache opens the snapshot store at cfg.Paths.CachePath and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *gdccache.Store {
	t.Helper()

	store, err := gdccache.Open(context.Background(), cfg.Paths.CachePath)
	if err != nil {
		t.Fatalf("gdccache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCache replaces the stored snapshot with entries.
func SeedCache(t testing.TB, cfg *config.Config, entries ...record.Fields) {
	t.Helper()

	store := MustOpenCache(t, cfg)
	if _, err := store.Replace(context.Background(), "test", entries); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close cache: %v", err)
	}
}
