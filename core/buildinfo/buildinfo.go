// Package buildinfo carries version metadata stamped by the linker.
//
//	go build -ldflags "\
//	  -X 'github.com/m3rciful/numerobot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/numerobot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/m3rciful/numerobot/core/buildinfo.Date=2026-10-01T12:00:00Z'"
package buildinfo

import "fmt"

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders a compact one-line description, e.g. "v0.3.0 (abcdef0)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
