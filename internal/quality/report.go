package quality

import (
	"fmt"
	"math"
	"sort"
)

// Severity classifies a diagnostic. Only SeverityError blocks acceptance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Location is a 1-based source position. Zero values mean unknown.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// Diagnostic is one finding from a check step.
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
	Tool     string    `json:"tool"`
	Code     string    `json:"code,omitempty"`
}

func (d Diagnostic) String() string {
	prefix := d.Tool
	if d.Code != "" {
		prefix += " " + d.Code
	}
	if d.Location != nil && d.Location.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s (%s)", d.Severity, d.Location.Line, d.Message, prefix)
	}
	return fmt.Sprintf("[%s] %s (%s)", d.Severity, d.Message, prefix)
}

// Report is the outcome of one gate run.
type Report struct {
	Passed      bool         `json:"passed"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Score       float64      `json:"score"`
	Skipped     []string     `json:"skipped,omitempty"`
}

// NewReport derives Passed and Score from diagnostics.
func NewReport(diags []Diagnostic, skipped []string) Report {
	sorted := append([]Diagnostic(nil), diags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i].Severity) < rank(sorted[j].Severity)
	})
	r := Report{Diagnostics: sorted, Skipped: skipped}
	r.Passed = r.Count(SeverityError) == 0
	r.Score = Score(r.Count(SeverityError), r.Count(SeverityWarning))
	return r
}

// Count returns the number of diagnostics with severity s.
func (r Report) Count(s Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Filter returns diagnostics with severity s, at most limit when limit > 0.
func (r Report) Filter(s Severity, limit int) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity != s {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Score is max(0, 1 - 0.2*errors - 0.05*warnings) rounded to two decimals.
func Score(errors, warnings int) float64 {
	s := 1.0 - 0.2*float64(errors) - 0.05*float64(warnings)
	if s < 0 {
		return 0
	}
	return math.Round(s*100) / 100
}

func rank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}
