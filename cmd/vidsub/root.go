package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidsub/internal/language"
	"vidsub/internal/pipeline"
	"vidsub/internal/runconfig"
)

// runFlagNames are the flags whose explicit presence overrides config values.
var runFlagNames = []string{"model", "device", "compute-type", "language", "output", "output-dir"}

func newRootCommand() *cobra.Command {
	return newRootCommandWithEngine(nil)
}

func newRootCommandWithEngine(engine pipeline.Engine) *cobra.Command {
	var configFlag, logLevel, logFormat string
	var flags runconfig.Flags

	ctx := newCommandContext(&configFlag, &logLevel, &logFormat)
	ctx.engine = engine

	rootCmd := &cobra.Command{
		Use:   "vidsub [flags] <video>",
		Short: "Generate SRT and WebVTT subtitles from a video",
		Long: `vidsub extracts the audio track of a video with ffmpeg, transcribes it
with WhisperX and writes <base>.srt and <base>.vtt side by side.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.VideoPath = args[0]
			}
			flags.Set = make(map[string]bool, len(runFlagNames))
			for _, name := range runFlagNames {
				flags.Set[name] = cmd.Flags().Changed(name)
			}
			return runSubtitles(cmd, ctx, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "Log format (console, json)")

	f := rootCmd.Flags()
	f.StringVarP(&flags.Model, "model", "m", "medium", "Model size (tiny, small, medium, large-v2, large-v3)")
	f.StringVar(&flags.Device, "device", "cpu", "Inference device (cpu, cuda)")
	f.StringVar(&flags.ComputeType, "compute-type", "int8", "Numeric precision (int8, float16, float32)")
	f.StringVarP(&flags.Language, "language", "l", "auto", "Spoken language code (en, de, yue, ...), or auto")
	f.StringVarP(&flags.Output, "output", "o", "", "Output base name; .srt/.vtt are appended (default: video name)")
	f.StringVar(&flags.OutputDir, "output-dir", "", "Directory for the subtitle files (default: current directory)")
	f.BoolVar(&flags.NoCache, "no-cache", false, "Bypass the transcript cache for this run")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}

func runSubtitles(cmd *cobra.Command, ctx *commandContext, flags runconfig.Flags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	run, err := runconfig.Resolve(cfg, flags)
	if err != nil {
		return &pipeline.StageError{Stage: pipeline.StageValidate, Err: err}
	}
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return &pipeline.StageError{Stage: pipeline.StageValidate, Err: err}
	}

	driver := &pipeline.Driver{Logger: logger, Engine: ctx.engine}
	result, err := driver.Run(cmd.Context(), run)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "SRT:      %s\n", result.SRTPath)
	fmt.Fprintf(out, "VTT:      %s\n", result.VTTPath)
	fmt.Fprintf(out, "Segments: %d\n", result.SegmentCount)
	if result.Language != "" {
		fmt.Fprintf(out, "Language: %s (%s)\n", language.DisplayName(result.Language), result.Language)
	} else {
		fmt.Fprintln(out, "Language: unknown")
	}
	if result.CacheHit {
		fmt.Fprintln(out, "Transcript: reused from cache")
	}
	return nil
}
