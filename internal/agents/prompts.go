package agents

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/airo/internal/memory"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/quality"
)

// System prompts double as role markers for the dry-run handler.
const (
	architectSystem = `You are a senior software architect. You design maintainable systems with
clear separation of concerns, testable components and a technology stack that
fits the target language. You answer with structured JSON only.`

	coderSystem = `You are a senior software engineer. You write complete, idiomatic source files
that follow the conventions of the target language, handle errors and edge cases,
and avoid hard-coded credentials. Always return the whole file inside one fenced
code block tagged with the language.`

	testSystem = `You are a test engineer. You write isolated, repeatable unit tests with
descriptive names that cover the main paths, edge cases and error conditions of
the code under test. Return the whole test file inside one fenced code block.`

	reviewSystem = `You are a senior code reviewer. You assess correctness, security, performance
and maintainability, and give specific, constructive findings. You answer with
structured JSON only.`
)

const architectureSchema = `{
  "architecture_type": "string",
  "description": "string",
  "components": [
    {"name": "string", "responsibility": "string", "dependencies": ["string"]}
  ],
  "tech_stack": {"backend": ["string"], "frontend": ["string"], "database": ["string"], "tools": ["string"]},
  "folder_structure": {"root": ["string"]},
  "design_patterns": ["string"],
  "considerations": ["string"]
}`

const reviewSchema = `{
  "overall_rating": 4,
  "summary": "string",
  "strengths": ["string"],
  "issues": [
    {"severity": "CRITICAL|HIGH|MEDIUM|LOW", "category": "security|performance|maintainability",
     "description": "string", "location": "line or function", "suggestion": "string"}
  ],
  "recommendations": ["string"]
}`

// Prompt line prefixes the dry-run handler reads back.
const (
	componentLine = "Component: "
	languageLine  = "Target language: "
)

// relatedSourceLimit caps each remembered source embedded in a prompt.
const relatedSourceLimit = 2000

func architectPrompt(req project.Request) string {
	var b strings.Builder
	b.WriteString("Design a complete software architecture for the following project.\n\n")
	fmt.Fprintf(&b, "Project: %s\n", req.Name)
	fmt.Fprintf(&b, "%s%s\n", languageLine, req.Language)
	fmt.Fprintf(&b, "Description:\n%s\n\n", req.Description)
	b.WriteString("Decide the architecture type, the components and their responsibilities, ")
	b.WriteString("the dependencies between components, the technology stack, the folder layout ")
	b.WriteString("and the design patterns to use. Name components with short identifiers.\n\n")
	b.WriteString("Respond with a JSON object of this shape:\n")
	b.WriteString(architectureSchema)
	return b.String()
}

func strictArchitectPrompt(req project.Request, cause error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous answer could not be used (%v).\n\n", cause)
	b.WriteString(architectPrompt(req))
	b.WriteString("\n\nEvery component needs a non-empty name. ")
	b.WriteString("Respond ONLY with the JSON object, with no prose and no code fences.")
	return b.String()
}

type draft struct {
	component project.ComponentSpec
	arch      *project.ArchitectureDocument
	language  project.Language
	related   []memory.Match
	previous  string
	report    *quality.Report
}

func coderPrompt(d draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %s code for one component of a larger project.\n\n", d.language)
	fmt.Fprintf(&b, "%s%s\n", componentLine, d.component.Name)
	fmt.Fprintf(&b, "%s%s\n", languageLine, d.language)
	fmt.Fprintf(&b, "Responsibility: %s\n", d.component.Responsibility)
	if len(d.component.Dependencies) > 0 {
		fmt.Fprintf(&b, "Depends on: %s\n", strings.Join(d.component.Dependencies, ", "))
	}

	if d.arch != nil {
		if d.arch.ArchitectureType != "" {
			fmt.Fprintf(&b, "\nArchitecture: %s\n", d.arch.ArchitectureType)
		}
		if d.arch.Description != "" {
			fmt.Fprintf(&b, "Overview: %s\n", d.arch.Description)
		}
		var others []string
		for _, c := range d.arch.Components {
			if c.Name != d.component.Name {
				others = append(others, c.Name)
			}
		}
		if len(others) > 0 {
			fmt.Fprintf(&b, "Other components: %s\n", strings.Join(others, ", "))
		}
	}

	info := d.language.Info()
	var hints []string
	if info.Formatter != "" {
		hints = append(hints, fmt.Sprintf("- Follows %s formatting", info.Formatter))
	}
	if info.TestFramework != "" {
		hints = append(hints, fmt.Sprintf("- Is testable with %s", info.TestFramework))
	}
	if len(hints) > 0 {
		b.WriteString("\nEnsure the code:\n")
		b.WriteString(strings.Join(hints, "\n"))
		b.WriteString("\n")
	}

	for _, m := range d.related {
		src := m.Source
		if len(src) > relatedSourceLimit {
			src = src[:relatedSourceLimit]
		}
		fmt.Fprintf(&b, "\nA related component accepted earlier (%s):\n```%s\n%s\n```\n", m.Component, m.Language, src)
	}

	if d.report != nil {
		b.WriteString("\nThe previous draft failed the quality gate. Fix it while keeping its functionality.\n")
		if d.previous != "" {
			fmt.Fprintf(&b, "\nPrevious draft:\n```%s\n%s\n```\n", d.language, d.previous)
		}
		b.WriteString("\nErrors to fix:\n")
		writeDiagnostics(&b, d.report.Filter(quality.SeverityError, 0))
		if warnings := d.report.Filter(quality.SeverityWarning, 5); len(warnings) > 0 {
			b.WriteString("\nWarnings to address:\n")
			writeDiagnostics(&b, warnings)
		}
	}

	fmt.Fprintf(&b, "\nReturn the complete source file in a single ```%s fenced block.", d.language)
	return b.String()
}

func writeDiagnostics(b *strings.Builder, diags []quality.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(b, "- %s\n", d)
	}
}

func testPrompt(a project.Artifact, framework string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate unit tests for the following %s code using %s.\n\n", a.Language, framework)
	fmt.Fprintf(&b, "%s%s\n", componentLine, a.Component)
	fmt.Fprintf(&b, "%s%s\n", languageLine, a.Language)
	fmt.Fprintf(&b, "File: %s\n\n", a.Filename)
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", a.Language, a.Source)
	b.WriteString("Test every public function, cover edge cases and error conditions, ")
	fmt.Fprintf(&b, "use mocks where needed and follow %s conventions. ", framework)
	b.WriteString("Return complete, runnable test code.")
	return b.String()
}

func reviewPrompt(a project.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review the following %s code.\n\n", a.Language)
	fmt.Fprintf(&b, "%s%s\n", componentLine, a.Component)
	fmt.Fprintf(&b, "File: %s\n\n", a.Filename)
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", a.Language, a.Source)
	b.WriteString("Rate the code from 1 to 5, list its strengths, and report issues by severity ")
	b.WriteString("(CRITICAL for vulnerabilities and major bugs, HIGH for significant problems, ")
	b.WriteString("MEDIUM for code smells, LOW for minor style issues). ")
	b.WriteString("Respond with a JSON object of this shape:\n")
	b.WriteString(reviewSchema)
	return b.String()
}
