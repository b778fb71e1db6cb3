package gdccache_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"gdcmeta/internal/gdccache"
	"gdcmeta/internal/record"
)

func openStore(t *testing.T) (*gdccache.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache", "gdc_index.db")
	store, err := gdccache.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestReplaceAndLoad(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	entries := []record.Fields{
		{ID: "a", Size: 1, MD5: "m1", ACL: []string{"*"}},
		{ID: "b", Size: 2, MD5: "m2", ACL: []string{"phs000178"}},
		{ID: "", Size: 3},
		{ID: "a", Size: 10, MD5: "m10", ACL: []string{"phs1"}},
	}
	count, err := store.Replace(ctx, "test", entries)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 stored entries, got %d", count)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("unexpected snapshot size %d", snap.Len())
	}
	a, ok := snap.Lookup("a")
	if !ok || a.Size != 10 || a.MD5 != "m10" || !reflect.DeepEqual(a.ACL, []string{"phs1"}) {
		t.Fatalf("unexpected entry a: %+v", a)
	}
	a.ACL[0] = "mutated"
	if again, _ := snap.Lookup("a"); again.ACL[0] != "phs1" {
		t.Fatal("Lookup returned shared acl slice")
	}

	info, err := store.Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Entries != 2 || info.Source != "test" || info.FetchedAt.IsZero() {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := store.Replace(ctx, "second", []record.Fields{{ID: "c", Size: 1, MD5: "m"}}); err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatal("expected replace to drop earlier entries")
	}
	c, ok, err := store.Get(ctx, "c")
	if err != nil || !ok || c.MD5 != "m" {
		t.Fatalf("unexpected Get result: %+v %v %v", c, ok, err)
	}
	if c.ACL == nil || len(c.ACL) != 0 {
		t.Fatalf("expected empty acl list, got %#v", c.ACL)
	}
}

func TestEmptyStoreInfo(t *testing.T) {
	store, _ := openStore(t)
	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Entries != 0 || !info.FetchedAt.IsZero() {
		t.Fatalf("unexpected info for empty store: %+v", info)
	}
}

func TestReopenDetectsSchemaMismatch(t *testing.T) {
	store, path := openStore(t)
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	_, err = gdccache.Open(context.Background(), path)
	if !errors.Is(err, gdccache.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestNewSnapshot(t *testing.T) {
	snap := gdccache.NewSnapshot([]record.Fields{{ID: "x", Size: 1}, {ID: "x", Size: 2}})
	if f, ok := snap.Lookup("x"); !ok || f.Size != 2 {
		t.Fatalf("expected later entry to win, got %+v", f)
	}
	var nilSnap *gdccache.Snapshot
	if _, ok := nilSnap.Lookup("x"); ok || nilSnap.Len() != 0 {
		t.Fatal("nil snapshot should be empty")
	}
}
