package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vidsub/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether ffmpeg, the engine launcher and CUDA are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			rows := make([]reportRow, 0, len(results)+1)
			for _, r := range results {
				rows = append(rows, reportRow{Check: r.Name, Status: checkStatus(r), Detail: r.Detail})
			}
			if cfg.Cache.Enabled {
				rows = append(rows, cacheRow(cmd, cfg.CacheDBPath()))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(rows))
			fmt.Fprintf(out, "Device: %s, compute type: %s, model: %s\n",
				cfg.Transcription.Device, cfg.Transcription.ComputeType, cfg.Transcription.Model)

			if !preflight.AllPassed(results) {
				return errors.New("check: one or more required dependencies are unavailable")
			}
			return nil
		},
	}
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Optional:
		return "unavailable (optional)"
	default:
		return "missing"
	}
}

func cacheRow(cmd *cobra.Command, path string) reportRow {
	row := reportRow{Check: "Transcript cache", Status: "missing"}
	store, err := openCache(cmd, path)
	if err != nil {
		row.Detail = err.Error()
		return row
	}
	defer store.Close()
	n, err := store.Count(cmd.Context())
	if err != nil {
		row.Detail = err.Error()
		return row
	}
	row.Status = "ok"
	row.Detail = fmt.Sprintf("%s (%d transcripts)", path, n)
	return row
}
