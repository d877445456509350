// Package testsupport holds fixtures shared by package tests: isolated
// configs, stub ffmpeg/uvx binaries on PATH, and a fake transcription engine.
package testsupport
