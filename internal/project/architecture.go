package project

import (
	"fmt"
	"strings"
)

// MainComponent names the fallback component used when a design lists none.
const MainComponent = "main"

// ComponentSpec is one unit of work in an architecture.
type ComponentSpec struct {
	Name           string   `json:"name"`
	Responsibility string   `json:"responsibility"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// TechStack lists recommended technologies by layer.
type TechStack struct {
	Backend  []string `json:"backend,omitempty"`
	Frontend []string `json:"frontend,omitempty"`
	Database []string `json:"database,omitempty"`
	Tools    []string `json:"tools,omitempty"`
}

// ArchitectureDocument is the Architect's structured design.
type ArchitectureDocument struct {
	ArchitectureType string              `json:"architecture_type"`
	Description      string              `json:"description"`
	Components       []ComponentSpec     `json:"components"`
	TechStack        TechStack           `json:"tech_stack"`
	FolderStructure  map[string][]string `json:"folder_structure,omitempty"`
	DesignPatterns   []string            `json:"design_patterns,omitempty"`
	Considerations   []string            `json:"considerations,omitempty"`
}

// Validate fails on structural faults only. An empty component list is
// allowed because WithFallback repairs it.
func (a *ArchitectureDocument) Validate() error {
	for i, c := range a.Components {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("component %d has no name", i)
		}
	}
	return nil
}

// WithFallback returns a copy where an empty component list is replaced by a
// single main component responsible for the whole description.
func (a ArchitectureDocument) WithFallback(description string) ArchitectureDocument {
	if len(a.Components) > 0 {
		return a
	}
	a.Components = []ComponentSpec{{Name: MainComponent, Responsibility: description}}
	return a
}

// Issue is a non-fatal data-quality finding about a design.
type Issue struct {
	Component string
	Message   string
}

func (i Issue) String() string {
	return i.Component + ": " + i.Message
}

// Issues reports duplicate names, self dependencies and dependencies that
// do not resolve within the document.
func (a *ArchitectureDocument) Issues() []Issue {
	var issues []Issue
	names := make(map[string]int, len(a.Components))
	for _, c := range a.Components {
		names[c.Name]++
	}
	seen := make(map[string]bool)
	for _, c := range a.Components {
		if names[c.Name] > 1 && !seen[c.Name] {
			issues = append(issues, Issue{Component: c.Name, Message: "duplicate component name"})
		}
		seen[c.Name] = true
		for _, dep := range c.Dependencies {
			switch {
			case dep == c.Name:
				issues = append(issues, Issue{Component: c.Name, Message: "depends on itself"})
			case names[dep] == 0:
				issues = append(issues, Issue{Component: c.Name, Message: fmt.Sprintf("unknown dependency %q", dep)})
			}
		}
	}
	return issues
}

// Component finds a component by name.
func (a *ArchitectureDocument) Component(name string) (ComponentSpec, bool) {
	for _, c := range a.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentSpec{}, false
}
