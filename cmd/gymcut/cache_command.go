package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gymcut/internal/captions"
	"gymcut/internal/transcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))

	return cacheCmd
}

func openCacheForCommand(ctx *commandContext) (*transcache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ctx.openCache(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("transcript cache is disabled (set cache.enabled = true)")
	}
	return store, nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheForCommand(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			printCacheEntries(cmd.OutOrStdout(), store.Path(), entries)
			return nil
		},
	}
}

func printCacheEntries(out io.Writer, path string, entries []transcache.Entry) {
	fmt.Fprintf(out, "Cache: %s\n", path)
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached transcripts: none")
		return
	}
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			filepath.Base(entry.SourcePath),
			entry.Backend + "/" + entry.Model,
			entry.Language,
			strconv.Itoa(entry.Segments),
			strconv.Itoa(entry.Words),
			captions.FormatASSTime(entry.Duration),
			entry.UpdatedAt.Local().Format(stampLayout),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Source", "Model", "Lang", "Segments", "Words", "Duration", "Updated"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	var olderThanDays int
	var all bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove cached transcripts older than cache.max_age_days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openCacheForCommand(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			days := cfg.Cache.MaxAgeDays
			if cmd.Flags().Changed("older-than") {
				days = olderThanDays
			}
			var olderThan time.Duration
			if !all {
				if days <= 0 {
					return errors.New("no age limit: pass --older-than or --all")
				}
				olderThan = time.Duration(days) * 24 * time.Hour
			}
			removed, err := store.Purge(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached transcript(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Age in days (default: cache.max_age_days)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached transcript")
	return cmd
}
