package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gdcmeta/internal/preflight"
)

func newTestCommand(ctx *commandContext) *cobra.Command {
	var skipIndexd bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check directories, GDC API and indexd credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, !skipIndexd)
			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, statusLabel(out, r.Passed), r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipIndexd, "skip-indexd", false, "Skip the indexd credential check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
