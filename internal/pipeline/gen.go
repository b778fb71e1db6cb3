package pipeline

import (
	"context"
	"errors"

	"gdcmeta/internal/chunk"
	"gdcmeta/internal/gdc"
	"gdcmeta/internal/logging"
	"gdcmeta/internal/manifest"
	"gdcmeta/internal/output"
	"gdcmeta/internal/record"
	"gdcmeta/internal/services"
)

const workflowGen = "gen-recs"

// WorkItem is one record to generate. Overrides are layered over whatever the
// resolver finds.
type WorkItem struct {
	ID        string
	Overrides record.Fields
}

// GenOptions tunes record generation.
type GenOptions struct {
	// CacheOnly skips the direct per-object lookups; cache misses fall back
	// to the index queries only.
	CacheOnly bool
}

// GenRecords resolves every item in chunks and writes {out}/{id}.json or
// {out}/errors/{id}.json per item. A stored non-empty snapshot is read once
// before the first chunk. Per-record failures never stop the run; only
// cancellation does.
func (d *Driver) GenRecords(ctx context.Context, items []WorkItem, opts GenOptions) (Summary, error) {
	ctx, logger := d.workflowContext(ctx, workflowGen)

	if d.loadedSnapshot() == nil {
		if opts.CacheOnly {
			if _, err := d.LoadCache(ctx, false); err != nil {
				return Summary{Workflow: workflowGen}, err
			}
		} else if _, err := d.LoadStoredCache(ctx); err != nil {
			return Summary{Workflow: workflowGen}, err
		}
	}
	var cache gdc.Cache
	if snap := d.loadedSnapshot(); snap != nil {
		cache = snap
	}

	valid := make([]WorkItem, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.ID == "" {
			skipped++
			continue
		}
		valid = append(valid, item)
	}

	logger.Info("generating records",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("items", len(valid)),
		logging.Bool("cache_only", opts.CacheOnly),
		logging.Bool("cache_loaded", cache != nil),
		logging.Int("chunk_size", d.chunkSize()),
	)

	prog := newProgress(workflowGen, len(valid), d.cfg.Pipeline.ProgressEvery, logger)
	_, err := chunk.Run(ctx, valid, d.chunkSize(), func(ctx context.Context, _ int, item WorkItem) bool {
		ok := d.genOne(ctx, item, cache, opts)
		prog.record(ok)
		return ok
	})

	summary := prog.summary()
	summary.Skipped = skipped
	return prog.finish(summary), err
}

func (d *Driver) genOne(ctx context.Context, item WorkItem, cache gdc.Cache, opts GenOptions) bool {
	ctx = services.WithRecordID(ctx, item.ID)
	logger := logging.WithContext(ctx, d.logger)

	resolve := d.resolver.Resolve
	if opts.CacheOnly {
		resolve = d.resolver.ResolveCacheOnly
	}
	rec, err := resolve(ctx, item.ID, item.Overrides, cache)
	if err == nil {
		if _, err = d.out.WriteRecord(rec); err == nil {
			logger.Debug("record written")
			return true
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	d.writeFailure(ctx, d.out, item.ID, item.Overrides, err)
	return false
}

func (d *Driver) writeFailure(ctx context.Context, w *output.Writer, id string, supplemental any, err error) {
	logger := logging.WithContext(ctx, d.logger)
	logging.WarnWithContext(logger, "record failed", "record_failed",
		logging.String("kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "record written to errors directory"),
		logging.String(logging.FieldErrorHint, "inspect the error record and rerun for the failed subset"),
	)
	entry := output.ErrorRecord{DID: id, Supplemental: supplemental, Error: errorMessages(err)}
	if _, writeErr := w.WriteError(entry); writeErr != nil {
		logging.ErrorWithContext(logger, "failed to persist error record", "error_record_write",
			logging.Error(writeErr),
			logging.String(logging.FieldErrorHint, "check permissions on "+w.ErrorsDir()),
		)
	}
}

func errorMessages(err error) []string {
	if err == nil {
		return []string{}
	}
	var resolution *gdc.ResolutionError
	if errors.As(err, &resolution) {
		return resolution.Messages()
	}
	return []string{err.Error()}
}

// GenFromManifest parses path with parser and generates a record for every
// valid line. A repeated id keeps its first position and its last values.
// Unreadable manifests are configuration errors.
func (d *Driver) GenFromManifest(ctx context.Context, path string, parser manifest.Parser, opts GenOptions) (Summary, error) {
	ctx, logger := d.workflowContext(ctx, workflowGen)

	result, err := manifest.ParseFile(path, parser, logger)
	if err != nil {
		return Summary{Workflow: workflowGen}, services.Wrap(services.ErrConfiguration, workflowGen, "read manifest", path, err)
	}

	items := WorkItemsFromStubs(result.Stubs)
	if len(result.Malformed) > 0 {
		if _, err := d.out.WriteReport("manifest.json", manifestReport{
			Manifest:  path,
			Format:    parser.Name(),
			Malformed: result.Malformed,
			Skipped:   result.Skipped,
		}); err != nil {
			logger.Warn("failed to write manifest report", logging.Error(err))
		}
	}

	summary, err := d.GenRecords(ctx, items, opts)
	summary.Skipped += len(result.Malformed)
	return summary, err
}

type manifestReport struct {
	Manifest  string               `json:"manifest"`
	Format    string               `json:"format"`
	Malformed []manifest.Malformed `json:"malformed"`
	Skipped   int                  `json:"skipped"`
}

// WorkItemsFromStubs converts parsed stubs into work items, collapsing
// repeated ids.
func WorkItemsFromStubs(stubs []manifest.Stub) []WorkItem {
	index := make(map[string]int, len(stubs))
	items := make([]WorkItem, 0, len(stubs))
	for _, stub := range stubs {
		if i, ok := index[stub.ID]; ok {
			items[i].Overrides = stub.Fields()
			continue
		}
		index[stub.ID] = len(items)
		items = append(items, WorkItem{ID: stub.ID, Overrides: stub.Fields()})
	}
	return items
}
