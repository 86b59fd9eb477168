// Package version holds the build version, set with -ldflags at release time.
package version

var (
	Version   = "0.1.0-dev"
	GitCommit = ""
)

// String returns the version with the commit when known.
func String() string {
	if GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
