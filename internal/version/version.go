// Package version exposes build metadata. The variables are overwritten with
// -ldflags "-X github.com/kailas-cloud/croptalk/internal/version.Version=..." at release time.
package version

import "fmt"

//nolint:gochecknoglobals // ldflags targets must be package variables.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the one-line banner printed by `croptalk version`.
func String() string {
	return fmt.Sprintf("croptalk %s (commit %s, built %s)", Version, Commit, Date)
}
