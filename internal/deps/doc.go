// Package deps resolves the external executables vidsub shells out to and
// reports which of them are available.
package deps
