package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gdcmeta/internal/pipeline"
)

func printSummary(cmd *cobra.Command, asJSON bool, summary pipeline.Summary, extra ...[2]string) error {
	if asJSON {
		return writeJSON(cmd, summary)
	}
	rows := [][]string{
		{"Workflow", summary.Workflow},
		{"Total", strconv.Itoa(summary.Total)},
		{"Succeeded", strconv.Itoa(summary.Succeeded)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	for _, kv := range extra {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
