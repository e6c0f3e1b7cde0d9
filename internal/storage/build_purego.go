//go:build !cgo_sqlite
// +build !cgo_sqlite

package storage

// This file is compiled when building without the cgo_sqlite tag (the default).
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// The pure Go implementation requires no C compiler and cross-compiles
// cleanly, which suits the handheld-scanner deployment targets.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
