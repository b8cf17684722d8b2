package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Build information for the dartsub CLI. Override at build time via
// -ldflags "-X github.com/MarkBennett/dart-sub004/internal/version.Version=...".
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with one color per semantic component. Color is
// dropped automatically when the output is not a terminal.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Describe is the one-line version banner.
func Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dartsub %s", Colored())
	if GitCommit != "" {
		short := GitCommit
		if len(short) > 12 {
			short = short[:12]
		}
		fmt.Fprintf(&b, " (%s)", short)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, " built %s", BuildDate)
	}
	return b.String()
}
