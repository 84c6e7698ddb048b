package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the cscan CLI.
// Всё, кроме цветов, можно переопределить через -ldflags "-X cscan/internal/version.Version=...".

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI, without colors.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Current returns the trimmed version, "dev" when it was blanked out at build time.
func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// Colored renders Current with major/minor/patch highlighted.
// Anything that does not look like x.y.z[-suffix] is returned unchanged.
func Colored() string {
	v := Current()
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	out := fmt.Sprintf("%s.%s.%s",
		versionMajorColor.Sprint(parts[0]),
		versionMinorColor.Sprint(parts[1]),
		versionPatchColor.Sprint(parts[2]))
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}
