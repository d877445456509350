// Package config loads, normalizes, and validates vidsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDSUB_FFMPEG. The Config type holds the defaults the CLI falls back to
// when a flag is not given, so every run resolves its settings in one pass.
package config
