package pipeline

import (
	"context"

	"gdcmeta/internal/logging"
	"gdcmeta/internal/manifest"
	"gdcmeta/internal/record"
	"gdcmeta/internal/reconcile"
	"gdcmeta/internal/services"
)

const (
	workflowMerge   = "merge-manifest"
	reconcileReport = "reconcile.json"
)

// ReconcileReport is written to {out}/reports/reconcile.json.
type ReconcileReport struct {
	Observed  string               `json:"observed"`
	Reference []string             `json:"reference"`
	Counts    map[string]int       `json:"counts"`
	Issues    []reconcile.Issue    `json:"issues"`
	Missing   []string             `json:"missing"`
	Malformed []manifest.Malformed `json:"malformed,omitempty"`
}

// MergeManifest reconciles the observed listing against the GDC manifests,
// writes one record per merged entry and the reconciliation report.
// Discrepancies are reported, never raised; unreadable inputs are fatal.
func (d *Driver) MergeManifest(ctx context.Context, observedFile string, parser manifest.Parser, gdcManifestFiles []string) (Summary, ReconcileReport, error) {
	ctx, logger := d.workflowContext(ctx, workflowMerge)
	report := ReconcileReport{Observed: observedFile, Reference: gdcManifestFiles}

	if len(gdcManifestFiles) == 0 {
		return Summary{Workflow: workflowMerge}, report, services.Wrap(services.ErrConfiguration, workflowMerge, "inputs", "at least one gdc manifest is required", nil)
	}

	observed, err := manifest.ParseFile(observedFile, parser, logger)
	if err != nil {
		return Summary{Workflow: workflowMerge}, report, services.Wrap(services.ErrConfiguration, workflowMerge, "read observed manifest", observedFile, err)
	}
	report.Malformed = append(report.Malformed, observed.Malformed...)

	var referenceStubs []manifest.Stub
	for _, path := range gdcManifestFiles {
		res, err := manifest.ParseFile(path, manifest.GDCManifest{}, logger)
		if err != nil {
			return Summary{Workflow: workflowMerge}, report, services.Wrap(services.ErrConfiguration, workflowMerge, "read gdc manifest", path, err)
		}
		referenceStubs = append(referenceStubs, res.Stubs...)
		report.Malformed = append(report.Malformed, res.Malformed...)
	}

	result := reconcile.Reconcile(observed.Stubs, reconcile.BuildReference(referenceStubs))
	merged := result.Merged()

	prog := newProgress(workflowMerge, len(merged), d.cfg.Pipeline.ProgressEvery, logger)
	for _, stub := range merged {
		if err := ctx.Err(); err != nil {
			return prog.summary(), report, err
		}
		stubCtx := services.WithRecordID(ctx, stub.ID)
		rec, err := record.Build(stub.ID, stub.Fields())
		if err == nil {
			_, err = d.out.WriteRecord(rec)
		}
		if err != nil {
			d.writeFailure(stubCtx, d.out, stub.ID, stub, err)
		}
		prog.record(err == nil)
	}

	report.Counts = result.Counts()
	report.Issues = result.Issues()
	report.Missing = result.Missing()
	if report.Issues == nil {
		report.Issues = []reconcile.Issue{}
	}
	if report.Missing == nil {
		report.Missing = []string{}
	}
	path, err := d.out.WriteReport(reconcileReport, report)
	if err != nil {
		return prog.summary(), report, services.Wrap(services.ErrConfiguration, workflowMerge, "write report", "", err)
	}

	for _, issue := range report.Issues {
		logging.WithContext(services.WithRecordID(ctx, issue.ID), logger).Debug("reconcile issue",
			logging.String("kind", issue.Kind),
			logging.String("message", issue.Message),
		)
	}
	logger.Info("reconciliation report written",
		logging.String("path", path),
		logging.Int("issues", len(report.Issues)),
		logging.Int("missing", len(report.Missing)),
	)

	summary := prog.summary()
	summary.Skipped = len(report.Issues) + len(report.Malformed)
	return prog.finish(summary), report, nil
}
