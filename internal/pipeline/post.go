package pipeline

import (
	"context"
	"errors"

	"gdcmeta/internal/chunk"
	"gdcmeta/internal/indexd"
	"gdcmeta/internal/logging"
	"gdcmeta/internal/output"
	"gdcmeta/internal/record"
	"gdcmeta/internal/services"
)

const (
	workflowPost = "post-recs"
	indexdDir    = "indexd"
)

// PostRecords upserts every {out}/*.json record into indexd. The confirmed
// server state goes to {out}/indexd/{id}.json; failures to
// {out}/indexd/errors/{id}.json. Missing credentials are fatal.
func (d *Driver) PostRecords(ctx context.Context) (Summary, error) {
	ctx, logger := d.workflowContext(ctx, workflowPost)

	if err := d.cfg.ValidateIndexd(); err != nil {
		return Summary{Workflow: workflowPost}, services.Wrap(services.ErrConfiguration, workflowPost, "credentials", "", err)
	}

	records, bad, err := output.ReadRecords(d.out.Root())
	if err != nil {
		return Summary{Workflow: workflowPost}, services.Wrap(services.ErrConfiguration, workflowPost, "read records", "", err)
	}
	for _, b := range bad {
		logging.WarnWithContext(logger, "skipping unreadable record file", "record_unreadable",
			logging.String("path", b.Path),
			logging.Error(b.Err),
			logging.String(logging.FieldImpact, "record not posted"),
			logging.String(logging.FieldErrorHint, "regenerate the record with gen-recs"),
		)
	}

	client := indexd.NewClient(indexd.Config{
		Host:     d.cfg.Indexd.Host,
		Username: d.cfg.Indexd.Username,
		Password: d.cfg.Indexd.Password,
	}, d.client, logger)
	confirmed := d.out.Sub(indexdDir)

	logger.Info("posting records",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("records", len(records)),
		logging.String("host", d.cfg.Indexd.Host),
	)

	prog := newProgress(workflowPost, len(records), d.cfg.Pipeline.ProgressEvery, logger)
	_, err = chunk.Run(ctx, records, d.chunkSize(), func(ctx context.Context, _ int, rec record.IndexRecord) bool {
		ok := d.postOne(ctx, client, confirmed, rec)
		prog.record(ok)
		return ok
	})

	summary := prog.summary()
	summary.Skipped = len(bad)
	return prog.finish(summary), err
}

func (d *Driver) postOne(ctx context.Context, client *indexd.Client, w *output.Writer, rec record.IndexRecord) bool {
	ctx = services.WithRecordID(ctx, rec.DID)

	stored, err := client.Upsert(ctx, rec)
	if err == nil {
		if _, err = w.WriteRecord(stored); err == nil {
			return true
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	d.writeFailure(ctx, w, rec.DID, rec, err)
	return false
}
