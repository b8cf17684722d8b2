package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersionHasDefault(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColoredKeepsComponents(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.0.0-beta.1", "weird"} {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() with %q = %q", v, got)
		}
	}
}

func TestDescribeIncludesBuildInfo(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version = "1.2.3"
	GitCommit = "1234567890abcdef1234567890abcdef12345678"
	BuildDate = "2024-01-15T10:30:00Z"
	got := Describe()
	for _, want := range []string{"dartsub 1.2.3", "(1234567890ab)", "built 2024-01-15T10:30:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}

	GitCommit, BuildDate = "", ""
	if got := Describe(); got != "dartsub 1.2.3" {
		t.Errorf("Describe() = %q", got)
	}
}
