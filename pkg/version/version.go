// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags "-X github.com/rshade/citygap/pkg/version.version=...".
//
//nolint:gochecknoglobals // Link-time injected build metadata.
var (
	version   = "0.1.0-dev"
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from, if known.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp, if known.
func GetBuildDate() string {
	return buildDate
}

// UserAgent returns the User-Agent sent to the article lookup service.
// Wikimedia asks API clients to identify themselves with a tool name and version.
func UserAgent() string {
	return fmt.Sprintf("citygap/%s (https://github.com/rshade/citygap)", version)
}
