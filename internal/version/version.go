// Package version exposes build metadata stamped with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	BuiltAt = "unknown"
)
