package quality

import (
	"context"
	"errors"
	goparser "go/parser"
	"go/scanner"
	"go/token"
	"regexp"
	"strings"
)

// syntaxChecker returns error diagnostics for unparsable source.
type syntaxChecker func(ctx context.Context, g *Gate, source, dir, file string) []Diagnostic

func goSyntax(_ context.Context, _ *Gate, source, _, file string) []Diagnostic {
	fset := token.NewFileSet()
	_, err := goparser.ParseFile(fset, file, source, goparser.AllErrors)
	if err == nil {
		return nil
	}
	var list scanner.ErrorList
	if errors.As(err, &list) {
		diags := make([]Diagnostic, 0, len(list))
		for _, e := range list {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Message:  "syntax error: " + e.Msg,
				Location: loc(e.Pos.Line, e.Pos.Column),
				Tool:     "go/parser",
			})
		}
		return diags
	}
	return []Diagnostic{{Severity: SeverityError, Message: "syntax error: " + err.Error(), Tool: "go/parser"}}
}

const pythonAST = `import ast, sys
try:
    ast.parse(sys.stdin.read())
except SyntaxError as e:
    print(f"{e.lineno or 0}:{e.offset or 0}:{e.msg}")
    sys.exit(1)
`

var lineColMsg = regexp.MustCompile(`^(\d+):(\d+):(.*)$`)

func pythonSyntax(ctx context.Context, g *Gate, source, dir, _ string) []Diagnostic {
	t := tool{step: StepSyntax, name: "python3", bin: "python3"}
	res, diag, ok := g.exec(ctx, t, Command{Name: "python3", Args: []string{"-c", pythonAST}, Dir: dir, Stdin: source})
	if !ok {
		return diag
	}
	if res.ExitCode == 0 {
		return nil
	}
	out := firstLine(res.Output())
	if m := lineColMsg.FindStringSubmatch(out); m != nil {
		return []Diagnostic{{Severity: SeverityError, Message: "syntax error: " + m[3], Location: loc(atoi(m[1]), atoi(m[2])), Tool: "python3"}}
	}
	return []Diagnostic{{Severity: SeverityError, Message: "syntax error: " + out, Tool: "python3"}}
}

var nodeLocation = regexp.MustCompile(`:(\d+)\s*$`)

func nodeSyntax(ctx context.Context, g *Gate, _, dir, file string) []Diagnostic {
	if dir == "" {
		return nil
	}
	t := tool{step: StepSyntax, name: "node", bin: "node"}
	res, diag, ok := g.exec(ctx, t, Command{Name: "node", Args: []string{"--check", file}, Dir: dir})
	if !ok {
		return diag
	}
	if res.ExitCode == 0 {
		return nil
	}
	// node prints "file:line", the offending line, a caret, then the error.
	d := Diagnostic{Severity: SeverityError, Tool: "node"}
	for _, line := range outputLines(CommandResult{Stderr: res.Stderr}) {
		if d.Location == nil {
			if m := nodeLocation.FindStringSubmatch(line); m != nil {
				d.Location = loc(atoi(m[1]), 0)
			}
		}
		if strings.Contains(line, "Error:") {
			d.Message = "syntax error: " + strings.TrimSpace(line)
			break
		}
	}
	if d.Message == "" {
		d.Message = "syntax error: " + firstLine(res.Output())
	}
	return []Diagnostic{d}
}
