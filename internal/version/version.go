// Package version holds the build-time version information for the CLI.
package version

var (
	// Version is the release version (set via -ldflags).
	Version = "v0.1.0-dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
)

// String renders the version for display.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + shortCommit(Commit) + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
