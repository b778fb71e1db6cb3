package gdccache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gdcmeta/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// layoutVersion is written into every new snapshot file. Raising it makes
// older files unreadable until `gdcmeta cache refresh --reset` rebuilds them.
const layoutVersion = 1

// ErrSchemaMismatch is returned by Open when the file was written with a
// different layoutVersion.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store persists the GDC index snapshot in a SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Info describes the stored snapshot.
type Info struct {
	Path      string    `json:"path"`
	Entries   int       `json:"entries"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
	Source    string    `json:"source,omitempty"`
}

// Open creates or connects to the snapshot database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.prepare(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// prepare lays out a file that has no tables yet and checks the stamped
// version of any other file.
func (s *Store) prepare(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin layout tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var tables int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&tables); err != nil {
		return fmt.Errorf("inspect snapshot file: %w", err)
	}
	if tables == 0 {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", layoutVersion); err != nil {
			return fmt.Errorf("stamp layout version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit layout: %w", err)
		}
		return nil
	}

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read layout version: %w", err)
	}
	if version != layoutVersion {
		return fmt.Errorf("%w: snapshot %s has version %d, expected %d (delete it or run 'gdcmeta cache refresh --reset')",
			ErrSchemaMismatch, s.path, version, layoutVersion)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Replace swaps the stored snapshot for entries in a single transaction.
// Entries without an id are ignored; a repeated id keeps the last entry.
func (s *Store) Replace(ctx context.Context, source string, entries []record.Fields) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO index_entries (did, size, md5, acl_json) VALUES (?, ?, ?, ?)
         ON CONFLICT(did) DO UPDATE SET size = excluded.size, md5 = excluded.md5, acl_json = excluded.acl_json`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		acl := entry.ACL
		if acl == nil {
			acl = []string{}
		}
		aclJSON, err := json.Marshal(acl)
		if err != nil {
			return 0, fmt.Errorf("marshal acl for %s: %w", entry.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, entry.ID, entry.Size, entry.MD5, string(aclJSON)); err != nil {
			return 0, fmt.Errorf("insert %s: %w", entry.ID, err)
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM index_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_info (id, fetched_at, source, entry_count) VALUES (1, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at, source = excluded.source, entry_count = excluded.entry_count`,
		time.Now().UTC().Format(time.RFC3339Nano), source, count,
	); err != nil {
		return 0, fmt.Errorf("record snapshot info: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return count, nil
}

// Load reads the full snapshot into memory.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT did, size, md5, acl_json FROM index_entries")
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]record.Fields)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return &Snapshot{entries: entries}, nil
}

// Get reads one entry without loading the snapshot.
func (s *Store) Get(ctx context.Context, id string) (record.Fields, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT did, size, md5, acl_json FROM index_entries WHERE did = ?", id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Fields{}, false, nil
	}
	if err != nil {
		return record.Fields{}, false, err
	}
	return entry, true, nil
}

// Info reports the snapshot size and age.
func (s *Store) Info(ctx context.Context) (Info, error) {
	info := Info{Path: s.path}
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, "SELECT fetched_at, source, entry_count FROM snapshot_info WHERE id = 1").
		Scan(&fetchedAt, &info.Source, &info.Entries)
	if errors.Is(err, sql.ErrNoRows) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("read snapshot info: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, fetchedAt); parseErr == nil {
		info.FetchedAt = ts
	}
	return info, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (record.Fields, error) {
	var (
		entry   record.Fields
		aclJSON string
	)
	if err := row.Scan(&entry.ID, &entry.Size, &entry.MD5, &aclJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry, err
		}
		return entry, fmt.Errorf("scan entry: %w", err)
	}
	if err := json.Unmarshal([]byte(aclJSON), &entry.ACL); err != nil {
		return entry, fmt.Errorf("decode acl for %s: %w", entry.ID, err)
	}
	return entry, nil
}
