package version

import "fmt"

var (
	// Version is overridden at build time via -ldflags.
	Version = "dev"
	Commit  = "unknown"
	// BuildDate is an ISO-8601 timestamp set by the release build.
	BuildDate = "unknown"
)

// String renders the build information on a single line.
func String() string {
	return fmt.Sprintf("feewatch %s (commit %s, built %s)", Version, Commit, BuildDate)
}
