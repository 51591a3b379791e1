// Package application provides the application interface for placemap
// commands.
//
// Commands accept Application rather than the concrete App type so they
// can be exercised with Mock in tests:
//
//	mock := &application.Mock{
//	    ConfigPathFunc: func() string { return "testdata/placemap.yaml" },
//	}
//	cmd := align.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"
)

// Application provides what commands need from the application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// ConfigPath returns the path of the alignment configuration file.
	ConfigPath() string

	// DatabasePath returns the run database path, empty when runs are not
	// persisted.
	DatabasePath() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
