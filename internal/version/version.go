// Package version holds build metadata of the knox CLI.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
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

// Colored renders Version with one color per component; the pre-release
// suffix stays plain.
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

// Banner is the text of `knox version`.
func Banner() string {
	var b strings.Builder
	fmt.Fprintf(&b, "knox %s\n", Colored())
	if GitCommit != "" {
		fmt.Fprintf(&b, "commit: %s\n", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "built:  %s\n", BuildDate)
	}
	return b.String()
}
