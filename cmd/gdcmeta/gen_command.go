package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gdcmeta/internal/pipeline"
)

func newGenRecsCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var cacheOnly bool
	var refresh bool
	var asJSON bool
	var mflags manifestFlags

	cmd := &cobra.Command{
		Use:   "gen-recs [id...]",
		Short: "Generate indexd records from GDC metadata",
		Long: "Resolve object ids into indexd records under the output directory.\n" +
			"Ids come from the arguments or from a manifest (--manifest). Failures are\n" +
			"written to the errors/ subdirectory and do not stop the run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath = strings.TrimSpace(manifestPath)
			if manifestPath == "" && len(args) == 0 {
				return fmt.Errorf("provide ids or --manifest")
			}
			opts := pipeline.GenOptions{CacheOnly: cacheOnly}
			return ctx.withDriver(cmd, func(runCtx context.Context, d *pipeline.Driver) error {
				if refresh || cacheOnly {
					if _, err := d.LoadCache(runCtx, refresh); err != nil {
						return err
					}
				}
				var (
					summary pipeline.Summary
					err     error
				)
				if manifestPath != "" {
					parser, perr := mflags.parser(ctx)
					if perr != nil {
						return perr
					}
					summary, err = d.GenFromManifest(runCtx, manifestPath, parser, opts)
				} else {
					items := make([]pipeline.WorkItem, 0, len(args))
					for _, id := range args {
						items = append(items, pipeline.WorkItem{ID: strings.TrimSpace(id)})
					}
					summary, err = d.GenRecords(runCtx, items, opts)
				}
				if err != nil {
					return err
				}
				return printSummary(cmd, asJSON, summary, [2]string{"Output", d.Output().Root()})
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file listing the objects to generate")
	cmd.Flags().BoolVar(&cacheOnly, "cache-only", false, "Use the local index snapshot; skip direct per-object lookups")
	cmd.Flags().BoolVar(&refresh, "refresh-cache", false, "Download the GDC index before generating")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	mflags.register(cmd, formatListing)
	return cmd
}

func newPostRecsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "post-recs",
		Short: "Upsert generated records into indexd",
		Long: "Create or merge every record in the output directory into indexd.\n" +
			"Credentials come from [indexd] or INDEX_USERNAME / INDEX_PASSWORD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDriver(cmd, func(runCtx context.Context, d *pipeline.Driver) error {
				summary, err := d.PostRecords(runCtx)
				if err != nil {
					return err
				}
				return printSummary(cmd, asJSON, summary)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newMergeManifestCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var mflags manifestFlags

	cmd := &cobra.Command{
		Use:   "merge-manifest <observed> <gdc-manifest>...",
		Short: "Reconcile a bucket listing against GDC manifests",
		Long: "Merge the observed bucket listing with one or more GDC manifests,\n" +
			"write a record per matched object and reports/reconcile.json.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := mflags.parser(ctx)
			if err != nil {
				return err
			}
			return ctx.withDriver(cmd, func(runCtx context.Context, d *pipeline.Driver) error {
				summary, report, err := d.MergeManifest(runCtx, args[0], parser, args[1:])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"summary": summary, "report": report})
				}
				return printSummary(cmd, false, summary,
					[2]string{"Issues", fmt.Sprint(len(report.Issues))},
					[2]string{"Missing", fmt.Sprint(len(report.Missing))},
				)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary and report as JSON")
	mflags.register(cmd, formatListing)
	return cmd
}
