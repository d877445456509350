// Package runconfig turns CLI flags and file configuration into the single
// immutable Run record the pipeline executes.
//
// Resolve performs every argument check before any side effect happens.
// Flag values win over config file values, which win over built-in defaults.
package runconfig
