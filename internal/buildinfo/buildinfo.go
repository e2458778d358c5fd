// Package buildinfo carries version details injected with -ldflags at build time.
package buildinfo

var (
	Version = "0.1.0"
	Commit  = "dev"
	Date    = "unknown"
)
