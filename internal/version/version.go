// Package version exposes cctr's build version, grounded on the teacher's
// debug.ReadBuildInfo-based version reporting.
package version

import (
	"runtime"
	"runtime/debug"
)

var version = "dev"

// Version returns the current version string with the Go toolchain suffix.
func Version() string {
	return version + " (" + GoVersion() + ")"
}

// RawVersion returns the semantic version string without any suffix.
func RawVersion() string {
	return version
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

// VCSRevision returns the short VCS revision embedded by the Go toolchain,
// or "" if unavailable (e.g. a `go run` build with no VCS metadata).
func VCSRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
