// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/velocity.trainer/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line description of the build.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
