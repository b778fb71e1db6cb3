package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gdcmeta/internal/bucketlist"
)

func newListBucketCommand(ctx *commandContext) *cobra.Command {
	var prefix string
	var outputPath string
	var anonymous bool

	cmd := &cobra.Command{
		Use:   "list-bucket gs://bucket[/prefix]",
		Short: "List a GCS bucket as a CSV manifest",
		Long: "Write a CSV manifest (file_gcs_url,file_gdc_id,file_size,file_gcs_timestamp,file_name)\n" +
			"for every object whose path carries an object id. The output is suitable for\n" +
			"`gen-recs --format csv --manifest`.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, urlPrefix, err := bucketlist.ParseBucketURL(args[0])
			if err != nil {
				return err
			}
			if p := strings.TrimSpace(prefix); p != "" {
				urlPrefix = p
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			source, err := bucketlist.NewGCSSource(cmd.Context(), anonymous)
			if err != nil {
				return err
			}
			defer source.Close()

			var out io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				out = file
			}
			_, err = bucketlist.WriteManifest(cmd.Context(), out, source, bucket, urlPrefix, logger)
			return err
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list objects under this prefix")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the manifest to a file instead of stdout")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "Access a public bucket without credentials")
	return cmd
}
