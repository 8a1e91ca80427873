package quality

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parser turns tool output into diagnostics.
type parser func(res CommandResult) ([]Diagnostic, error)

func loc(line, col int) *Location {
	if line <= 0 {
		return nil
	}
	return &Location{Line: line, Column: col}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// ruff: [{"code": "F821", "message": "...", "location": {"row": 1, "column": 1}}]
func parseRuff(res CommandResult) ([]Diagnostic, error) {
	var issues []struct {
		Code     *string `json:"code"`
		Message  string  `json:"message"`
		Location struct {
			Row    int `json:"row"`
			Column int `json:"column"`
		} `json:"location"`
	}
	if err := decodeJSONOutput(res.Stdout, &issues); err != nil {
		return nil, err
	}
	diags := make([]Diagnostic, 0, len(issues))
	for _, i := range issues {
		code := ""
		if i.Code != nil {
			code = *i.Code
		}
		diags = append(diags, Diagnostic{
			Severity: ruffSeverity(code),
			Message:  i.Message,
			Location: loc(i.Location.Row, i.Location.Column),
			Tool:     "ruff",
			Code:     code,
		})
	}
	return diags, nil
}

// Syntax errors (E9xx or no code) and pyflakes name errors break the program;
// everything else is style.
func ruffSeverity(code string) Severity {
	switch {
	case code == "", strings.HasPrefix(code, "E9"), code == "F821", code == "F822", code == "F823":
		return SeverityError
	default:
		return SeverityWarning
	}
}

// eslint: [{"messages": [{"ruleId": "no-undef", "severity": 2, ...}]}]
func parseESLint(res CommandResult) ([]Diagnostic, error) {
	var files []struct {
		Messages []struct {
			RuleID   *string `json:"ruleId"`
			Severity int     `json:"severity"`
			Message  string  `json:"message"`
			Line     int     `json:"line"`
			Column   int     `json:"column"`
		} `json:"messages"`
	}
	if err := decodeJSONOutput(res.Stdout, &files); err != nil {
		return nil, err
	}
	var diags []Diagnostic
	for _, f := range files {
		for _, m := range f.Messages {
			sev := SeverityWarning
			if m.Severity == 2 {
				sev = SeverityError
			}
			code := ""
			if m.RuleID != nil {
				code = *m.RuleID
			}
			diags = append(diags, Diagnostic{Severity: sev, Message: m.Message, Location: loc(m.Line, m.Column), Tool: "eslint", Code: code})
		}
	}
	return diags, nil
}

// bandit: {"results": [{"issue_severity": "HIGH", "issue_text": "...", "line_number": 3, "test_id": "B105"}]}
func parseBandit(res CommandResult) ([]Diagnostic, error) {
	var out struct {
		Results []struct {
			Severity string `json:"issue_severity"`
			Text     string `json:"issue_text"`
			Line     int    `json:"line_number"`
			TestID   string `json:"test_id"`
		} `json:"results"`
	}
	if err := decodeJSONOutput(res.Stdout, &out); err != nil {
		return nil, err
	}
	diags := make([]Diagnostic, 0, len(out.Results))
	for _, r := range out.Results {
		sev := SeverityInfo
		switch strings.ToUpper(r.Severity) {
		case "HIGH":
			sev = SeverityError
		case "MEDIUM":
			sev = SeverityWarning
		}
		diags = append(diags, Diagnostic{Severity: sev, Message: "security: " + r.Text, Location: loc(r.Line, 0), Tool: "bandit", Code: r.TestID})
	}
	return diags, nil
}

// stylelint: [{"warnings": [{"line": 1, "column": 2, "rule": "...", "severity": "error", "text": "..."}]}]
func parseStylelint(res CommandResult) ([]Diagnostic, error) {
	var files []struct {
		Warnings []struct {
			Line     int    `json:"line"`
			Column   int    `json:"column"`
			Rule     string `json:"rule"`
			Severity string `json:"severity"`
			Text     string `json:"text"`
		} `json:"warnings"`
	}
	if err := decodeJSONOutput(res.Output(), &files); err != nil {
		return nil, err
	}
	var diags []Diagnostic
	for _, f := range files {
		for _, w := range f.Warnings {
			sev := SeverityWarning
			if w.Severity == "error" {
				sev = SeverityError
			}
			diags = append(diags, Diagnostic{Severity: sev, Message: w.Text, Location: loc(w.Line, w.Column), Tool: "stylelint", Code: w.Rule})
		}
	}
	return diags, nil
}

func decodeJSONOutput(out string, v any) error {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return fmt.Errorf("unexpected output: %s", firstLine(out))
	}
	return nil
}

var (
	// file:line[:col]: [severity:] message [code]
	gccLine = regexp.MustCompile(`^(?:vet:\s*)?(?:[^\s:]*[\\/])?[\w.-]+\.\w+:(\d+):(?:(\d+):)?\s*(?:(fatal error|error|warning|note|info)\s*:\s*)?(.+?)(?:\s+\[([\w./-]+)\])?$`)
	// file(line,col): error TS1234: message
	tscLine = regexp.MustCompile(`^[^\s(]+\((\d+),(\d+)\):\s*(error|warning)\s+(TS\d+):\s*(.+)$`)
	// [ERROR] /path/File.java:3:5: message [Rule]
	checkstyleLine = regexp.MustCompile(`^\[(ERROR|WARN|INFO)\]\s+\S+?:(\d+)(?::(\d+))?:\s*(.+?)(?:\s+\[(\w+)\])?$`)
	// error[E0308]: message / warning: message, followed by --> file:line:col
	rustcHeader   = regexp.MustCompile(`^(error|warning)(?:\[(\w+)\])?:\s*(.+)$`)
	rustcLocation = regexp.MustCompile(`^\s*-->\s+\S+?:(\d+):(\d+)`)
)

func severityWord(word string, fallback Severity) Severity {
	switch strings.ToLower(word) {
	case "error", "fatal error":
		return SeverityError
	case "warning", "warn":
		return SeverityWarning
	case "note", "info":
		return SeverityInfo
	default:
		return fallback
	}
}

// gccParser parses "file:line:col: severity: message" output.
func gccParser(tool string, fallback Severity) parser {
	return func(res CommandResult) ([]Diagnostic, error) {
		var diags []Diagnostic
		for _, line := range outputLines(res) {
			m := gccLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			diags = append(diags, Diagnostic{
				Severity: severityWord(m[3], fallback),
				Message:  m[4],
				Location: loc(atoi(m[1]), atoi(m[2])),
				Tool:     tool,
				Code:     m[5],
			})
		}
		return diags, nil
	}
}

func parseTSC(res CommandResult) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, line := range outputLines(res) {
		m := tscLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: severityWord(m[3], SeverityError),
			Message:  m[5],
			Location: loc(atoi(m[1]), atoi(m[2])),
			Tool:     "tsc",
			Code:     m[4],
		})
	}
	return diags, nil
}

func parseCheckstyle(res CommandResult) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, line := range outputLines(res) {
		m := checkstyleLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: severityWord(m[1], SeverityWarning),
			Message:  m[4],
			Location: loc(atoi(m[2]), atoi(m[3])),
			Tool:     "checkstyle",
			Code:     m[5],
		})
	}
	return diags, nil
}

func rustcParser(tool string) parser {
	return func(res CommandResult) ([]Diagnostic, error) {
		var diags []Diagnostic
		var pending *Diagnostic
		flush := func() {
			if pending != nil {
				diags = append(diags, *pending)
				pending = nil
			}
		}
		for _, line := range outputLines(res) {
			if m := rustcHeader.FindStringSubmatch(line); m != nil {
				flush()
				// Summary lines such as "error: aborting due to 2 previous errors".
				if strings.HasPrefix(m[3], "aborting due to") || (strings.Contains(m[3], "generated") && strings.Contains(m[3], "warning")) {
					continue
				}
				pending = &Diagnostic{Severity: severityWord(m[1], SeverityWarning), Message: m[3], Tool: tool, Code: m[2]}
				continue
			}
			if m := rustcLocation.FindStringSubmatch(line); m != nil && pending != nil && pending.Location == nil {
				pending.Location = loc(atoi(m[1]), atoi(m[2]))
			}
		}
		flush()
		return diags, nil
	}
}

func outputLines(res CommandResult) []string {
	text := res.Stdout
	if strings.TrimSpace(res.Stderr) != "" {
		text += "\n" + res.Stderr
	}
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimRight(l, "\r "); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
