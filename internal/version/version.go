// Package version provides version information for ntfytoast.
package version

// Version is the version of ntfytoast. This can be overridden at build time using ldflags.
// It is embedded in every action payload, so it must stay a plain semver string.
var Version = "0.9.0"

// Commit is the git commit hash. This can be overridden at build time using ldflags.
var Commit = "unknown"

// String returns the full version string including the commit hash if available.
func String() string {
	if Commit != "unknown" {
		return Version + "+" + Commit
	}
	return Version
}
