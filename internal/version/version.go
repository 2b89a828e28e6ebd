// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for `solrq version` and startup logs.
func String() string {
	return fmt.Sprintf("solrq %s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent is sent on outbound requests to the search service.
func UserAgent() string { return "solrq/" + Version }
