package output

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// Readme renders the README of a generated project.
func Readme(res *project.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", res.Request.Name, res.Request.Description)

	if arch := res.Architecture; arch != nil {
		b.WriteString("## Architecture\n\n")
		if arch.ArchitectureType != "" {
			fmt.Fprintf(&b, "**Type:** %s\n\n", arch.ArchitectureType)
		}
		if arch.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", arch.Description)
		}
		stack := []struct {
			name  string
			items []string
		}{
			{"Backend", arch.TechStack.Backend},
			{"Frontend", arch.TechStack.Frontend},
			{"Database", arch.TechStack.Database},
			{"Tools", arch.TechStack.Tools},
		}
		var lines []string
		for _, s := range stack {
			if len(s.items) > 0 {
				lines = append(lines, fmt.Sprintf("- **%s:** %s", s.name, strings.Join(s.items, ", ")))
			}
		}
		if len(lines) > 0 {
			b.WriteString("### Tech stack\n\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n\n")
		}
	}

	if len(res.Artifacts) > 0 {
		b.WriteString("## Components\n\n")
		for _, a := range res.Artifacts {
			score := 0.0
			if r, ok := a.FinalReport(); ok {
				score = r.Score
			}
			fmt.Fprintf(&b, "- **%s** (`%s`) - Quality: %.2f, %s after %d iteration(s)\n",
				a.Component, a.Filename, score, a.State, a.Iterations)
		}
		b.WriteString("\n")
	}

	if names := res.NeedsAttention(); len(names) > 0 {
		b.WriteString("## Needs attention\n\n")
		b.WriteString("These components did not pass the quality gate. The last draft was kept.\n\n")
		for _, n := range names {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	if info := res.Request.Language.Info(); info.TestFramework != "" && len(res.Tests) > 0 {
		fmt.Fprintf(&b, "## Testing\n\nTests are written for %s.\n\n", info.TestFramework)
	}

	b.WriteString("---\n\nGenerated by AIRO.\n")
	return b.String()
}
