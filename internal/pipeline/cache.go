package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gdcmeta/internal/gdc"
	"gdcmeta/internal/gdccache"
	"gdcmeta/internal/logging"
	"gdcmeta/internal/services"
)

const workflowCache = "cache"

// LoadCache reads the index snapshot into memory. When the stored snapshot is
// empty or refresh is set, the full index is downloaded and persisted first.
func (d *Driver) LoadCache(ctx context.Context, refresh bool) (gdccache.Info, error) {
	ctx, logger := d.workflowContext(ctx, workflowCache)

	store, err := d.openStore(ctx)
	if err != nil {
		return gdccache.Info{}, err
	}
	defer store.Close()

	info, err := store.Info(ctx)
	if err != nil {
		return info, err
	}

	if refresh || info.Entries == 0 {
		logger.Info("downloading gdc index",
			logging.String(logging.FieldEventType, "cache_refresh"),
			logging.Bool("requested", refresh),
			logging.Int("stored_entries", info.Entries),
		)
		paginator := gdc.NewPaginator(d.client, d.cfg.GDC.PageSize, logger)
		entries, err := paginator.FetchAll(ctx, gdc.IndexURLs(d.cfg.GDC.BaseURL))
		if err != nil {
			return info, services.Wrap(services.ErrRemote, workflowCache, "fetch index", "", err)
		}
		if _, err := store.Replace(ctx, d.cfg.GDC.BaseURL, entries); err != nil {
			return info, fmt.Errorf("persist index: %w", err)
		}
		if info, err = store.Info(ctx); err != nil {
			return info, err
		}
	}

	return info, d.install(ctx, store, info, logger)
}

// LoadStoredCache reads an existing non-empty snapshot without downloading
// anything. It reports whether a snapshot is now in memory.
func (d *Driver) LoadStoredCache(ctx context.Context) (bool, error) {
	if d.loadedSnapshot() != nil {
		return true, nil
	}
	if _, err := os.Stat(d.cfg.Paths.CachePath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	ctx, logger := d.workflowContext(ctx, workflowCache)

	store, err := d.openStore(ctx)
	if err != nil {
		return false, err
	}
	defer store.Close()

	info, err := store.Info(ctx)
	if err != nil {
		return false, err
	}
	if info.Entries == 0 {
		logger.Debug("gdc index snapshot empty; resolving over the network")
		return false, nil
	}
	if err := d.install(ctx, store, info, logger); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Driver) openStore(ctx context.Context) (*gdccache.Store, error) {
	store, err := gdccache.Open(ctx, d.cfg.Paths.CachePath)
	if err != nil {
		if errors.Is(err, gdccache.ErrSchemaMismatch) {
			return nil, services.Wrap(services.ErrConfiguration, workflowCache, "open", "", err)
		}
		return nil, services.Wrap(services.ErrConfiguration, workflowCache, "open", d.cfg.Paths.CachePath, err)
	}
	return store, nil
}

func (d *Driver) install(ctx context.Context, store *gdccache.Store, info gdccache.Info, logger *slog.Logger) error {
	snapshot, err := store.Load(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.snapshot = snapshot
	d.mu.Unlock()

	logger.Info("gdc index loaded",
		logging.String(logging.FieldEventType, "cache_loaded"),
		logging.Int("entries", snapshot.Len()),
		logging.String("path", info.Path),
	)
	return nil
}

// ResetCache deletes the snapshot file and its SQLite sidecars.
func (d *Driver) ResetCache() error {
	return RemoveCache(d.cfg.Paths.CachePath)
}

// RemoveCache deletes the snapshot at path. A missing file is not an error.
func RemoveCache(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
