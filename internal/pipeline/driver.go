package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gdcmeta/internal/config"
	"gdcmeta/internal/fetch"
	"gdcmeta/internal/gdc"
	"gdcmeta/internal/gdccache"
	"gdcmeta/internal/logging"
	"gdcmeta/internal/output"
	"gdcmeta/internal/services"
)

const lockFileName = ".gdcmeta.lock"

// ErrLocked is returned when another run holds the output tree.
var ErrLocked = errors.New("output directory is locked by another gdcmeta run")

// Options configures a Driver.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Client overrides the HTTP client built from Config.
	Client *fetch.Client
}

// Driver owns one pipeline invocation: the output tree lock, the run id, the
// loaded cache snapshot and the directory cache shared by every writer.
type Driver struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *fetch.Client
	resolver *gdc.Resolver
	dirs     *output.DirCache
	out      *output.Writer
	lock     *flock.Flock
	runID    string

	mu       sync.Mutex
	snapshot *gdccache.Snapshot
}

// Open acquires the output tree lock and prepares a driver.
func Open(opts Options) (*Driver, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "open", "config is required", nil)
	}
	if cfg.Paths.OutputDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "open", "paths.output_dir is empty", nil)
	}
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "open", "create output directory", err)
	}

	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	client := opts.Client
	if client == nil {
		client = fetch.NewFromConfig(cfg, logger)
	}

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "open", cfg.Paths.OutputDir, ErrLocked)
	}

	dirs := output.NewDirCache()
	return &Driver{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		client:   client,
		resolver: gdc.NewResolver(client, cfg.GDC.BaseURL, logger),
		dirs:     dirs,
		out:      output.NewWriter(cfg.Paths.OutputDir, dirs),
		lock:     lock,
		runID:    runID,
	}, nil
}

// Close releases the output tree lock.
func (d *Driver) Close() error {
	if d == nil || d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

// RunID identifies this invocation in logs.
func (d *Driver) RunID() string { return d.runID }

// Output returns the writer for the record tree.
func (d *Driver) Output() *output.Writer { return d.out }

func (d *Driver) workflowContext(ctx context.Context, workflow string) (context.Context, *slog.Logger) {
	ctx = services.WithRunID(ctx, d.runID)
	ctx = services.WithWorkflow(ctx, workflow)
	return ctx, logging.WithContext(ctx, d.logger)
}

func (d *Driver) loadedSnapshot() *gdccache.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

func (d *Driver) chunkSize() int {
	if d.cfg.Pipeline.ChunkSize > 0 {
		return d.cfg.Pipeline.ChunkSize
	}
	return 10
}
