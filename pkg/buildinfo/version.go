// Package buildinfo exposes the version stamped into the kitbash binary.
//
// Release builds set the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/kitbash/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/kitbash/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/kitbash/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/kitbash
package buildinfo

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = "none"

	// Date is the UTC build timestamp.
	Date = "unknown"
)

// String returns the multi-line build summary shown by "kitbash --version".
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template for cobra.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}

// UserAgent identifies kitbash when fetching remote part images.
func UserAgent() string {
	return "kitbash/" + Version
}
