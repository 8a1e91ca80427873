package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// DryRunHandler answers every agent prompt with canned, well-formed output
// so the full pipeline can run without a model server.
func DryRunHandler() llm.HandlerFunc {
	return func(req llm.Request, _ llm.Options) (string, error) {
		lang := project.Language(promptValue(req.Prompt, languageLine))
		component := promptValue(req.Prompt, componentLine)
		switch req.System {
		case architectSystem:
			return dryRunArchitecture(lang)
		case coderSystem:
			return fence(lang, dryRunSource(lang, component)), nil
		case testSystem:
			return fence(lang, dryRunTest(lang, component)), nil
		case reviewSystem:
			return dryRunReview, nil
		default:
			return "", fmt.Errorf("%w: dry run has no answer for this prompt", llm.ErrModelUnavailable)
		}
	}
}

func promptValue(prompt, prefix string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if v, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func fence(lang project.Language, code string) string {
	return "```" + string(lang) + "\n" + code + "```\n"
}

func dryRunArchitecture(lang project.Language) (string, error) {
	doc := project.ArchitectureDocument{
		ArchitectureType: "modular",
		Description:      "Dry-run design with a core module and an entry point.",
		Components: []project.ComponentSpec{
			{Name: "core", Responsibility: "Implements the domain logic."},
			{Name: "app", Responsibility: "Wires the core into an entry point.", Dependencies: []string{"core"}},
		},
		TechStack:      project.TechStack{Backend: []string{string(lang)}},
		DesignPatterns: []string{"dependency injection"},
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

func dryRunSource(lang project.Language, component string) string {
	name := strings.Join(words(component), "_")
	if name == "" {
		name = "component"
	}
	switch lang {
	case project.Python:
		return fmt.Sprintf("def %s() -> str:\n    return %q\n", name, name)
	case project.JavaScript, project.TypeScript:
		return fmt.Sprintf("export function %s() {\n  return %q;\n}\n", camel(name), name)
	case project.Go:
		return fmt.Sprintf("package main\n\n// %s returns the component name.\nfunc %s() string {\n\treturn %q\n}\n", camel(name), camel(name), name)
	case project.Rust:
		return fmt.Sprintf("pub fn %s() -> &'static str {\n    %q\n}\n", name, name)
	case project.Java:
		class := strings.TrimSuffix(SourceFilename(project.ComponentSpec{Name: component}, lang), ".java")
		return fmt.Sprintf("public class %s {\n    public String name() {\n        return %q;\n    }\n}\n", class, name)
	case project.Cpp:
		return fmt.Sprintf("#include <string>\n\nstd::string %s() { return %q; }\n", name, name)
	case project.HTML:
		return fmt.Sprintf("<!DOCTYPE html>\n<html lang=\"en\">\n  <head>\n    <title>%s</title>\n  </head>\n  <body></body>\n</html>\n", name)
	case project.CSS:
		return fmt.Sprintf(".%s {\n  display: block;\n}\n", strings.ReplaceAll(name, "_", "-"))
	default:
		return name + "\n"
	}
}

func dryRunTest(lang project.Language, component string) string {
	name := strings.Join(words(component), "_")
	switch lang {
	case project.Python:
		return fmt.Sprintf("def test_%s():\n    assert True\n", name)
	case project.Go:
		return fmt.Sprintf("package main\n\nimport \"testing\"\n\nfunc Test%s(t *testing.T) {}\n", pascal(name))
	default:
		return fmt.Sprintf("// tests for %s\n", name)
	}
}

const dryRunReview = `{"overall_rating": 4, "summary": "Dry-run review.", "strengths": ["small and focused"], "issues": [], "recommendations": ["replace the dry-run output with real code"]}`

func camel(snake string) string {
	p := pascal(snake)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

func pascal(snake string) string {
	var b strings.Builder
	for _, part := range strings.Split(snake, "_") {
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}
