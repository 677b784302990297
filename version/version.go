package version

import "fmt"

// set via ldflags during build
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)

// UserAgent is sent with every request to the upstream API
func UserAgent() string {
	return "speedview-sync/" + Version
}
