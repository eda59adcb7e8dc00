// Package version holds build information set through ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/deck-budget/internal/version.Version=v1.2.3"
package version

import "fmt"

var (
	// Version is the application version.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
)

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// String returns the version with its commit for --version output.
func String() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
