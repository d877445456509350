package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidsub/internal/transcriptcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show transcript cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.CacheDBPath()
			fmt.Fprintf(out, "Enabled: %s\n", yesNo(cfg.Cache.Enabled))
			fmt.Fprintf(out, "Path:    %s\n", path)
			if !cfg.Cache.Enabled {
				return nil
			}
			store, err := openCache(cmd, path)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Entries: %d\n", n)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Cache.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript cache is disabled; nothing to clear")
				return nil
			}
			store, err := openCache(cmd, cfg.CacheDBPath())
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached transcripts\n", removed)
			return nil
		},
	})

	return cacheCmd
}

func openCache(cmd *cobra.Command, path string) (*transcriptcache.Store, error) {
	return transcriptcache.Open(cmd.Context(), path, nil)
}
