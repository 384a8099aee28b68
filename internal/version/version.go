// Package version carries build identity for the libmap CLI.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// Overridable at build time via -ldflags, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=1.0.0"
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional commit hash stamped by the release build.
	GitCommit = ""

	// BuildDate is an optional ISO-8601 build timestamp.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
	metaColor    = color.New(color.Faint)
)

// String renders the plain version line, suitable for logs and tests.
func String() string {
	s := "libmap " + Version
	if meta := buildMeta(); meta != "" {
		s += " (" + meta + ")"
	}
	return s
}

// Colorized renders the version line with ANSI colors. fatih/color degrades
// to plain text when stdout is not a terminal.
func Colorized() string {
	s := nameColor.Sprint("libmap") + " " + versionColor.Sprint(Version)
	if meta := buildMeta(); meta != "" {
		s += " " + metaColor.Sprint("("+meta+")")
	}
	return s
}

func buildMeta() string {
	var parts []string
	if GitCommit != "" {
		parts = append(parts, "commit "+GitCommit)
	}
	if BuildDate != "" {
		parts = append(parts, "built "+BuildDate)
	}
	return strings.Join(parts, ", ")
}
