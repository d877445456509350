package main

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vidsub/internal/config"
	"vidsub/internal/logging"
	"vidsub/internal/pipeline"
	"vidsub/internal/runconfig"
	"vidsub/internal/services"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	// engine overrides the transcription engine (tests only).
	engine pipeline.Engine

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureCacheDir(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "prepare cache dir", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// logger builds the run logger, letting --log-level and --log-format
// override the config file.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	level, format := "info", "console"
	if c.config != nil {
		level = c.config.Logging.Level
		format = c.config.Logging.Format
	}
	if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
		level = strings.ToLower(strings.TrimSpace(*c.logLevel))
	}
	if c.logFormat != nil && strings.TrimSpace(*c.logFormat) != "" {
		format = strings.ToLower(strings.TrimSpace(*c.logFormat))
	}
	if !logging.ValidLevel(level) {
		return nil, &runconfig.InvalidArgumentError{Flag: "log-level", Value: level, Allowed: config.LogLevels}
	}
	if !slices.Contains(config.LogFormats, format) {
		return nil, &runconfig.InvalidArgumentError{Flag: "log-format", Value: format, Allowed: config.LogFormats}
	}
	return logging.NewWriter(w, level, format)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
