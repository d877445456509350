package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Supported enumerations. The CLI resolver validates flags against the same sets.
var (
	Models       = []string{"tiny", "small", "medium", "large-v2", "large-v3"}
	Devices      = []string{"cpu", "cuda"}
	ComputeTypes = []string{"int8", "float16", "float32"}
	LogFormats   = []string{"console", "json"}
	LogLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs,
		checkChoice("transcription.model", c.Transcription.Model, Models),
		checkChoice("transcription.device", c.Transcription.Device, Devices),
		checkChoice("transcription.compute_type", c.Transcription.ComputeType, ComputeTypes),
		checkChoice("logging.format", c.Logging.Format, LogFormats),
		checkChoice("logging.level", c.Logging.Level, LogLevels),
	)
	if strings.ContainsAny(c.Transcription.Language, " \t/") {
		errs = append(errs, fmt.Errorf("transcription.language: invalid value %q", c.Transcription.Language))
	}
	return errors.Join(errs...)
}

func checkChoice(field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s: invalid value %q (allowed: %s)", field, value, strings.Join(allowed, ", "))
}
