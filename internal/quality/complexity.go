package quality

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"regexp"
	"strings"
)

// Complexity thresholds.
const (
	maxFunctionLines = 50
	maxParameters    = 7
	maxNesting       = 4
)

func complexityWarning(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Tool: "complexity"}
}

func goComplexity(source string) []Diagnostic {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, "code.go", source, 0)
	if err != nil {
		return nil
	}
	var diags []Diagnostic
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}
		start := fset.Position(fd.Pos()).Line
		name := fd.Name.Name

		if lines := fset.Position(fd.End()).Line - start + 1; lines > maxFunctionLines {
			d := complexityWarning("function %s is %d lines long; consider splitting it", name, lines)
			d.Location = loc(start, 0)
			diags = append(diags, d)
		}

		params := 0
		for _, field := range fd.Type.Params.List {
			if len(field.Names) == 0 {
				params++
			}
			params += len(field.Names)
		}
		if params > maxParameters {
			d := complexityWarning("function %s takes %d parameters; consider a parameter struct", name, params)
			d.Location = loc(start, 0)
			diags = append(diags, d)
		}

		if depth := blockDepth(fd.Body.List, 0); depth > maxNesting {
			d := complexityWarning("function %s nests %d levels deep", name, depth)
			d.Location = loc(start, 0)
			diags = append(diags, d)
		}
	}
	return diags
}

func blockDepth(stmts []ast.Stmt, cur int) int {
	m := cur
	for _, s := range stmts {
		m = max(m, stmtDepth(s, cur))
	}
	return m
}

func stmtDepth(s ast.Stmt, cur int) int {
	switch s := s.(type) {
	case *ast.IfStmt:
		d := blockDepth(s.Body.List, cur+1)
		switch e := s.Else.(type) {
		case *ast.IfStmt:
			// else-if chains stay at the same level.
			d = max(d, stmtDepth(e, cur))
		case *ast.BlockStmt:
			d = max(d, blockDepth(e.List, cur+1))
		}
		return d
	case *ast.ForStmt:
		return blockDepth(s.Body.List, cur+1)
	case *ast.RangeStmt:
		return blockDepth(s.Body.List, cur+1)
	case *ast.SwitchStmt:
		return clauseDepth(s.Body, cur+1)
	case *ast.TypeSwitchStmt:
		return clauseDepth(s.Body, cur+1)
	case *ast.SelectStmt:
		return clauseDepth(s.Body, cur+1)
	case *ast.BlockStmt:
		return blockDepth(s.List, cur)
	case *ast.LabeledStmt:
		return stmtDepth(s.Stmt, cur)
	}
	return cur
}

func clauseDepth(body *ast.BlockStmt, cur int) int {
	m := cur
	for _, c := range body.List {
		switch c := c.(type) {
		case *ast.CaseClause:
			m = max(m, blockDepth(c.Body, cur))
		case *ast.CommClause:
			m = max(m, blockDepth(c.Body, cur))
		}
	}
	return m
}

var (
	pyDef     = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\((.*)`)
	pyControl = regexp.MustCompile(`^(?:if|elif|else|for|while|with|try|except|finally|match|case)\b`)
)

type pyFunc struct {
	name     string
	indent   int
	start    int
	end      int
	params   int
	depth    int
	controls []int
}

// pythonComplexity uses indentation only; it never executes or parses the
// source beyond line structure.
func pythonComplexity(source string) []Diagnostic {
	lines := strings.Split(source, "\n")
	var (
		funcs []*pyFunc
		stack []*pyFunc
	)
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := indentWidth(raw)
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		if m := pyDef.FindStringSubmatch(raw); m != nil {
			f := &pyFunc{name: m[2], indent: indent, start: i + 1, end: i + 1, params: countPyParams(m[3])}
			funcs = append(funcs, f)
			stack = append(stack, f)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		f := stack[len(stack)-1]
		f.end = i + 1

		// else/elif/except replace the block they close, keeping depth.
		for len(f.controls) > 0 && indent <= f.controls[len(f.controls)-1] {
			f.controls = f.controls[:len(f.controls)-1]
		}
		if pyControl.MatchString(trimmed) && strings.HasSuffix(stripComment(trimmed), ":") {
			f.controls = append(f.controls, indent)
			f.depth = max(f.depth, len(f.controls))
		}
	}

	var diags []Diagnostic
	for _, f := range funcs {
		if lines := f.end - f.start + 1; lines > maxFunctionLines {
			d := complexityWarning("function %s is %d lines long; consider splitting it", f.name, lines)
			d.Location = loc(f.start, 0)
			diags = append(diags, d)
		}
		if f.params > maxParameters {
			d := complexityWarning("function %s takes %d parameters; consider grouping them", f.name, f.params)
			d.Location = loc(f.start, 0)
			diags = append(diags, d)
		}
		if f.depth > maxNesting {
			d := complexityWarning("function %s nests %d levels deep", f.name, f.depth)
			d.Location = loc(f.start, 0)
			diags = append(diags, d)
		}
	}
	return diags
}

func indentWidth(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func stripComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// countPyParams counts parameters on a def line, ignoring self, cls and the
// bare * and / markers. Multi-line signatures count what is on the first line.
func countPyParams(rest string) int {
	if i := strings.LastIndex(rest, ")"); i >= 0 {
		rest = rest[:i]
	}
	n := 0
	depth := 0
	var cur strings.Builder
	flush := func() {
		p := strings.TrimSpace(cur.String())
		cur.Reset()
		p, _, _ = strings.Cut(p, "=")
		p, _, _ = strings.Cut(p, ":")
		p = strings.TrimSpace(p)
		switch p {
		case "", "self", "cls", "*", "/":
			return
		}
		n++
	}
	for _, r := range rest {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	flush()
	return n
}
