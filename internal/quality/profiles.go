package quality

import (
	"regexp"
	"strings"
)

// Step names a gate stage. The names double as config flag names.
type Step string

const (
	StepSyntax     Step = "syntax"
	StepLinting    Step = "linting"
	StepTypeCheck  Step = "type_checking"
	StepSecurity   Step = "security_scan"
	StepFormatting Step = "formatting"
	StepComplexity Step = "complexity"
)

var toolSteps = []Step{StepLinting, StepTypeCheck, StepSecurity, StepFormatting}

// tool is one external checker.
type tool struct {
	step Step
	name string
	bin  string
	args []string
	// The source file name is appended unless noFile is set.
	noFile bool
	parse  parser
	// quietMissing skips the tool silently when it is not installed.
	quietMissing bool
	// soften downgrades matching errors to warnings; generated files are
	// checked alone, so unresolvable imports are expected.
	soften *regexp.Regexp
	// unformatted is reported when the tool exits non-zero without output
	// the parser understands.
	unformatted bool
}

func (t tool) command(file, dir string) Command {
	args := append([]string(nil), t.args...)
	if !t.noFile {
		args = append(args, file)
	}
	return Command{Name: t.bin, Args: args, Dir: dir}
}

// profile is the check plan for one language.
type profile struct {
	filename   string
	syntax     syntaxChecker
	tools      []tool
	format     func(source string) []Diagnostic
	complexity func(source string) []Diagnostic
}

var unresolvedImport = regexp.MustCompile(`(?i)could not import|no required module|cannot find (module|package)|unresolved import|can't find crate|package \S+ does not exist|file not found|is not in std`)

func formatter(name, bin string, args ...string) tool {
	return tool{step: StepFormatting, name: name, bin: bin, args: args, parse: noDiagnostics, unformatted: true}
}

func noDiagnostics(CommandResult) ([]Diagnostic, error) { return nil, nil }

// htmlhint's unix format carries severity in the rule code: [error/tag-pair].
func parseHTMLHint(res CommandResult) ([]Diagnostic, error) {
	diags, err := gccParser("htmlhint", SeverityWarning)(res)
	for i := range diags {
		if sev, rule, ok := strings.Cut(diags[i].Code, "/"); ok {
			diags[i].Severity = severityWord(sev, SeverityWarning)
			diags[i].Code = rule
		}
	}
	return diags, err
}

var profiles = map[string]profile{
	"python": {
		filename: "code.py",
		syntax:   pythonSyntax,
		tools: []tool{
			{step: StepLinting, name: "ruff", bin: "ruff", args: []string{"check", "--output-format", "json", "--no-cache"}, parse: parseRuff},
			{step: StepTypeCheck, name: "mypy", bin: "mypy", args: []string{"--ignore-missing-imports", "--no-error-summary", "--show-column-numbers", "--show-error-codes"}, parse: gccParser("mypy", SeverityWarning)},
			{step: StepSecurity, name: "bandit", bin: "bandit", args: []string{"-f", "json", "-q"}, parse: parseBandit, quietMissing: true},
			formatter("black", "black", "--check", "--quiet"),
		},
		complexity: pythonComplexity,
	},
	"javascript": {
		filename: "code.js",
		syntax:   nodeSyntax,
		tools: []tool{
			{step: StepLinting, name: "eslint", bin: "eslint", args: []string{"--format", "json"}, parse: parseESLint, soften: unresolvedImport},
			formatter("prettier", "prettier", "--check"),
		},
	},
	"typescript": {
		filename: "code.ts",
		tools: []tool{
			{step: StepLinting, name: "eslint", bin: "eslint", args: []string{"--format", "json"}, parse: parseESLint, soften: unresolvedImport},
			{step: StepTypeCheck, name: "tsc", bin: "tsc", args: []string{"--noEmit", "--pretty", "false", "--skipLibCheck"}, parse: parseTSC, soften: regexp.MustCompile(`Cannot find (module|name) '`)},
			formatter("prettier", "prettier", "--check"),
		},
	},
	"go": {
		filename: "code.go",
		syntax:   goSyntax,
		tools: []tool{
			{step: StepLinting, name: "go vet", bin: "go", args: []string{"vet"}, parse: gccParser("go vet", SeverityError), soften: unresolvedImport},
		},
		format:     goFormat,
		complexity: goComplexity,
	},
	"rust": {
		filename: "code.rs",
		tools: []tool{
			{step: StepLinting, name: "clippy", bin: "clippy-driver", args: []string{"--edition", "2021", "--crate-type", "lib", "--emit", "metadata", "--out-dir", "."}, parse: rustcParser("clippy"), soften: unresolvedImport},
			formatter("rustfmt", "rustfmt", "--check", "--edition", "2021"),
		},
	},
	"java": {
		filename: "Main.java",
		tools: []tool{
			{step: StepLinting, name: "checkstyle", bin: "checkstyle", args: []string{"-c", "/google_checks.xml"}, parse: parseCheckstyle},
			formatter("google-java-format", "google-java-format", "--dry-run", "--set-exit-if-changed"),
		},
	},
	"cpp": {
		filename: "code.cpp",
		tools: []tool{
			{step: StepLinting, name: "clang-tidy", bin: "clang-tidy", args: []string{"code.cpp", "--"}, noFile: true, parse: gccParser("clang-tidy", SeverityWarning), soften: unresolvedImport},
			formatter("clang-format", "clang-format", "--dry-run", "--Werror"),
		},
	},
	"html": {
		filename: "code.html",
		tools: []tool{
			{step: StepLinting, name: "htmlhint", bin: "htmlhint", args: []string{"--format", "unix"}, parse: parseHTMLHint},
			formatter("prettier", "prettier", "--check"),
		},
	},
	"css": {
		filename: "code.css",
		tools: []tool{
			{step: StepLinting, name: "stylelint", bin: "stylelint", args: []string{"--formatter", "json"}, parse: parseStylelint},
			formatter("prettier", "prettier", "--check"),
		},
	},
}

// Supported reports whether language has a check profile.
func Supported(language string) bool {
	_, ok := profiles[language]
	return ok
}
