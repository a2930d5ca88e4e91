// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/vulntor/formsense/pkg/matching"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of formsense.
	Version = "dev"
	// Commit holds the current version commit of formsense.
	Commit = "none"
	// BuildDate holds the build date of formsense.
	BuildDate = "unknown"
	// StartDate holds the start date of formsense.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"buildDate"`
	RulesSchema string `json:"rulesSchema"`
	Release     bool   `json:"release"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("formsense %s (commit: %s, date: %s, rules schema: %s)",
		Version, Commit, BuildDate, matching.SupportedVersions)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:     Version,
		Commit:      Commit,
		BuildDate:   BuildDate,
		RulesSchema: matching.SupportedVersions,
		Release:     IsRelease(Version),
	}
}

// IsRelease reports whether v is a semantic version without a
// pre-release suffix. Development builds ("dev") are not releases.
func IsRelease(v string) bool {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return parsed.Prerelease() == ""
}
