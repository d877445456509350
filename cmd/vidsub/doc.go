// Package main hosts the vidsub CLI entrypoint and command graph.
//
// The root command turns a video path and model flags into a runconfig.Run
// and hands it to the pipeline driver. Subcommands report tool and hardware
// readiness, scaffold and print configuration, and manage the transcript
// cache. Work belongs in the internal packages; this package only wires
// flags, configuration and output.
package main
