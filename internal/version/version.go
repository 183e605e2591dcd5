// Package version exposes build metadata set at link time via
// -ldflags "-X".
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for the -version flag.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
