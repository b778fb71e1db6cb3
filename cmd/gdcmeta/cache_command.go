package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gdcmeta/internal/gdccache"
	"gdcmeta/internal/pipeline"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local GDC index snapshot",
	}
	cacheCmd.AddCommand(newCacheRefreshCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	return cacheCmd
}

func newCacheRefreshCommand(ctx *commandContext) *cobra.Command {
	var reset bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download the full GDC index into the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDriver(cmd, func(runCtx context.Context, d *pipeline.Driver) error {
				if reset {
					if err := d.ResetCache(); err != nil {
						return err
					}
				}
				info, err := d.LoadCache(runCtx, true)
				if err != nil {
					return err
				}
				return printCacheInfo(cmd, asJSON, info)
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the snapshot file first (required after a schema change)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the cached metadata for an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := gdccache.Open(cmd.Context(), cfg.Paths.CachePath)
			if err != nil {
				return err
			}
			defer store.Close()

			id := strings.TrimSpace(args[0])
			entry, ok, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not in the cache (run `gdcmeta cache refresh`)", id)
			}
			if asJSON {
				return writeJSON(cmd, entry)
			}
			rows := [][]string{
				{"ID", entry.ID},
				{"Size", strconv.FormatInt(entry.Size, 10)},
				{"MD5", entry.MD5},
				{"ACL", strings.Join(entry.ACL, ", ")},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show snapshot size and age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := gdccache.Open(cmd.Context(), cfg.Paths.CachePath)
			if err != nil {
				return err
			}
			defer store.Close()
			info, err := store.Info(cmd.Context())
			if err != nil {
				return err
			}
			return printCacheInfo(cmd, asJSON, info)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printCacheInfo(cmd *cobra.Command, asJSON bool, info gdccache.Info) error {
	if asJSON {
		return writeJSON(cmd, info)
	}
	fetched := "never"
	if !info.FetchedAt.IsZero() {
		fetched = info.FetchedAt.Local().Format(time.DateTime)
	}
	rows := [][]string{
		{"Path", info.Path},
		{"Entries", strconv.Itoa(info.Entries)},
		{"Fetched", fetched},
		{"Source", info.Source},
		{"Populated", yesNo(info.Entries > 0)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}
