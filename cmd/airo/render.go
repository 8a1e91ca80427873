package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/airo/internal/project"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// renderSummary writes the human-readable outcome of a run.
func renderSummary(w io.Writer, res *project.Result) {
	var b strings.Builder

	switch {
	case res.Fatal:
		b.WriteString(errorStyle.Render("✗ Project generation failed"))
	case res.Partial():
		b.WriteString(warnStyle.Render("! Project generated with issues"))
	default:
		b.WriteString(successStyle.Render("✓ Project generated"))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Name:"), res.Request.Name)
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Language:"), res.Request.Language)
	if res.Architecture != nil {
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Architecture:"), res.Architecture.ArchitectureType)
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Duration:"), res.Duration().Round(time.Millisecond))

	if len(res.Artifacts) > 0 {
		b.WriteString("\n" + titleStyle.Render("Components") + "\n")
		for _, art := range res.Artifacts {
			mark := successStyle.Render("✓")
			if !art.Accepted() {
				mark = warnStyle.Render("!")
			}
			score := "-"
			if r, ok := art.FinalReport(); ok {
				score = fmt.Sprintf("%.2f", r.Score)
			}
			fmt.Fprintf(&b, "  %s %s %s\n", mark, art.Component,
				mutedStyle.Render(fmt.Sprintf("%s, score %s, %d iteration(s)", art.Filename, score, art.Iterations)))
		}
	}

	if names := res.NeedsAttention(); len(names) > 0 {
		b.WriteString("\n" + warnStyle.Render("Needs attention") + "\n")
		for _, name := range names {
			b.WriteString("  - " + name + "\n")
		}
	}

	if len(res.Failures) > 0 {
		b.WriteString("\n" + errorStyle.Render("Failures") + "\n")
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "  - [%s] %s\n", f.Kind, f.Message)
		}
	}

	if res.OutputDir != "" {
		b.WriteString("\n" + infoStyle.Render("Written to "+res.OutputDir))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// progressPrinter reports pipeline steps as they happen.
func progressPrinter(w io.Writer) func(project.StepProgress) {
	return func(p project.StepProgress) {
		var mark string
		switch p.Status {
		case project.StatusCompleted:
			mark = successStyle.Render("✓")
		case project.StatusFailed:
			mark = errorStyle.Render("✗")
		case project.StatusSkipped:
			mark = mutedStyle.Render("-")
		default:
			mark = infoStyle.Render("…")
		}
		line := fmt.Sprintf("%s %3d%% %s", mark, p.Percentage, p.Message)
		if p.Component != "" {
			line += " " + mutedStyle.Render("("+p.Component+")")
		}
		fmt.Fprintln(w, line)
	}
}
