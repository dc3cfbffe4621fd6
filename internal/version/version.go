// Package version reports the build version of arena-overlay.
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/ramonehamilton/arena-overlay/internal/version.Version=v0.3.0 -X github.com/ramonehamilton/arena-overlay/internal/version.Commit=abc1234"
package version

import "fmt"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short commit hash, empty when unknown.
	Commit = ""
)

// String formats the version for display.
func String() string {
	if Commit == "" {
		return fmt.Sprintf("arena-overlay %s", Version)
	}
	return fmt.Sprintf("arena-overlay %s (%s)", Version, Commit)
}
