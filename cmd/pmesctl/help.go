package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Self-Labs/pmes/internal/ui"
)

// helpRule rewrites one syntactic element of Cobra's plain help text.
type helpRule struct {
	re    *regexp.Regexp
	apply func(parts []string) string
}

// Rules run in order over the full help text. Submatch 0 is the whole
// match; apply receives all submatches.
var helpRules = []helpRule{
	// Section headers ("Rosters:", "Flags:"); "Usage:" stays unstyled
	// because it is never at column 0 on its own line in Cobra output.
	{
		re:    regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`),
		apply: func(p []string) string { return ui.RenderAccent(strings.TrimSpace(p[0])) },
	},
	// Command names: two-space indent, name, gap before the description.
	{
		re:    regexp.MustCompile(`(?m)^(  )(\S+)(  )`),
		apply: func(p []string) string { return p[1] + ui.RenderCommand(p[2]) + p[3] },
	},
	// Flag value types, e.g. "--unit string", "--delay duration".
	{
		re:    regexp.MustCompile(`(--?\S+\s+)(string|int|int32|duration|stringSlice|stringArray)`),
		apply: func(p []string) string { return p[1] + ui.RenderMuted(p[2]) },
	},
	// Defaults, e.g. (default "http://localhost:8080").
	{
		re:    regexp.MustCompile(`\(default "[^"]*"\)`),
		apply: func(p []string) string { return ui.RenderMuted(p[0]) },
	},
}

// colorizedHelpFunc wraps Cobra's default help output with ANSI styling
// when stdout supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			cmd.SetOut(out)
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		text := buf.String()
		for _, rule := range helpRules {
			text = rule.re.ReplaceAllStringFunc(text, func(match string) string {
				return rule.apply(rule.re.FindStringSubmatch(match))
			})
		}
		fmt.Fprint(out, text)
	}
}
