// Package version exposes the Compass build version.
package version

// Version is the current Compass version.
// Overridden at build time via -ldflags "-X github.com/aristath/compass/internal/version.Version=..."
var Version = "dev"
