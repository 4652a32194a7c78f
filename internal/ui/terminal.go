package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether stdout should receive ANSI colors,
// honoring the NO_COLOR and CLICOLOR conventions before falling back to
// TTY detection.
func ShouldUseColor() bool {
	// Any non-empty NO_COLOR disables color (https://no-color.org).
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch {
	case strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1":
		// Forced on, even when piped.
		return true
	case strings.TrimSpace(os.Getenv("CLICOLOR")) == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
