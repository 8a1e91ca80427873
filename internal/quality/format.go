package quality

import "go/format"

func goFormat(source string) []Diagnostic {
	formatted, err := format.Source([]byte(source))
	if err != nil || string(formatted) == source {
		return nil
	}
	return []Diagnostic{{Severity: SeverityWarning, Message: "source is not gofmt-formatted", Tool: "gofmt"}}
}
