package version

import "fmt"

// Name is the binary name used in help output and the HTTP User-Agent.
const Name = "ai-changelog"

// Build metadata, overridden via -ldflags "-X".
var (
	Version   = "0.1.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

// Full returns a human-friendly version string.
func Full() string {
	return fmt.Sprintf("%s (commit:%s, built:%s)", Version, Commit, BuildDate)
}

// UserAgent identifies outbound API requests.
func UserAgent() string {
	return Name + "/" + Version
}
