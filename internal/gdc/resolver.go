package gdc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gdcmeta/internal/logging"
	"gdcmeta/internal/record"
	"gdcmeta/internal/services"
)

// Stage names, in resolution order.
const (
	StageCache        = "cache"
	StageCurrent      = "current"
	StageLegacy       = "legacy"
	StageCurrentIndex = "current-index"
	StageLegacyIndex  = "legacy-index"
)

// Resolver maps an object id to a validated record by querying the GDC API
// through an ordered fallback chain.
type Resolver struct {
	client  Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewResolver constructs a resolver against baseURL (e.g. https://api.gdc.cancer.gov).
func NewResolver(client Fetcher, baseURL string, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, id string) (record.Fields, error)
}

func (r *Resolver) networkStages(cacheOnly bool) []stage {
	index := []stage{
		{name: StageCurrentIndex, run: func(ctx context.Context, id string) (record.Fields, error) {
			return r.fetchIndexFile(ctx, r.baseURL+"/files/", id)
		}},
		{name: StageLegacyIndex, run: func(ctx context.Context, id string) (record.Fields, error) {
			return r.fetchIndexFile(ctx, r.baseURL+"/legacy/files/", id)
		}},
	}
	if cacheOnly {
		return index
	}
	direct := []stage{
		{name: StageCurrent, run: func(ctx context.Context, id string) (record.Fields, error) {
			return r.fetchFile(ctx, r.baseURL+"/files/"+id)
		}},
		{name: StageLegacy, run: func(ctx context.Context, id string) (record.Fields, error) {
			return r.fetchFile(ctx, r.baseURL+"/legacy/files/"+id)
		}},
	}
	return append(direct, index...)
}

// Resolve runs the full chain: cache, current, legacy, current index query,
// legacy index query. The first stage producing a valid record wins.
func (r *Resolver) Resolve(ctx context.Context, id string, overrides record.Fields, cache Cache) (record.IndexRecord, error) {
	return r.resolve(ctx, id, overrides, cache, false)
}

// ResolveCacheOnly skips the direct lookups and only falls back to the index
// file queries on a cache miss.
func (r *Resolver) ResolveCacheOnly(ctx context.Context, id string, overrides record.Fields, cache Cache) (record.IndexRecord, error) {
	return r.resolve(ctx, id, overrides, cache, true)
}

func (r *Resolver) resolve(ctx context.Context, id string, overrides record.Fields, cache Cache, cacheOnly bool) (record.IndexRecord, error) {
	ctx = services.WithRecordID(ctx, id)
	failure := &ResolutionError{ID: id}

	if cache != nil {
		if cached, ok := cache.Lookup(id); ok {
			rec, err := record.Build(id, cached, overrides)
			if err != nil {
				failure.Attempts = append(failure.Attempts, StageError{Stage: StageCache, Err: err})
				return record.IndexRecord{}, failure
			}
			return rec, nil
		}
	}

	for _, st := range r.networkStages(cacheOnly) {
		if err := ctx.Err(); err != nil {
			return record.IndexRecord{}, err
		}
		stageCtx := services.WithStage(ctx, st.name)
		fields, err := st.run(stageCtx, id)
		if err == nil {
			var rec record.IndexRecord
			rec, err = record.Build(id, fields, overrides)
			if err == nil {
				return rec, nil
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return record.IndexRecord{}, err
		}
		logging.WithContext(stageCtx, r.logger).Debug("resolver stage failed", logging.Error(err))
		failure.Attempts = append(failure.Attempts, StageError{Stage: st.name, Err: err})
	}
	return record.IndexRecord{}, failure
}

func (r *Resolver) fetchFile(ctx context.Context, url string) (record.Fields, error) {
	var resp fileResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return record.Fields{}, err
	}
	fields := resp.Data.fields()
	fields.ID = ""
	return fields, nil
}

func (r *Resolver) fetchIndexFile(ctx context.Context, url, id string) (record.Fields, error) {
	var resp indexResponse
	if err := r.client.PostJSON(ctx, url, newIndexQuery(id), &resp); err != nil {
		return record.Fields{}, err
	}
	hits := resp.Data.Hits
	if len(hits) != 1 {
		return record.Fields{}, fmt.Errorf("index query expected exactly 1 hit, got %d", len(hits))
	}
	if len(hits[0].IndexFiles) != 1 {
		return record.Fields{}, fmt.Errorf("index query expected exactly 1 index file, got %d", len(hits[0].IndexFiles))
	}
	file := hits[0].IndexFiles[0]
	return record.Fields{
		ACL:  mapACL(hits[0].ACL),
		Size: file.FileSize,
		MD5:  file.MD5Sum,
	}, nil
}
