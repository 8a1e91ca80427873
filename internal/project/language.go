package project

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLanguage is returned for languages without a profile.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language is a target language for generated code.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	Cpp        Language = "cpp"
	HTML       Language = "html"
	CSS        Language = "css"
)

// LanguageInfo describes the toolchain conventions of a language.
type LanguageInfo struct {
	Extension     string
	TestFramework string
	Linter        string
	TypeChecker   string
	Formatter     string
	PackageFile   string
}

var languages = map[Language]LanguageInfo{
	Python:     {Extension: ".py", TestFramework: "pytest", Linter: "ruff", TypeChecker: "mypy", Formatter: "black", PackageFile: "requirements.txt"},
	JavaScript: {Extension: ".js", TestFramework: "jest", Linter: "eslint", Formatter: "prettier", PackageFile: "package.json"},
	TypeScript: {Extension: ".ts", TestFramework: "jest", Linter: "eslint", TypeChecker: "tsc", Formatter: "prettier", PackageFile: "package.json"},
	Go:         {Extension: ".go", TestFramework: "go test", Linter: "go vet", Formatter: "gofmt", PackageFile: "go.mod"},
	Rust:       {Extension: ".rs", TestFramework: "cargo test", Linter: "clippy", Formatter: "rustfmt", PackageFile: "Cargo.toml"},
	Java:       {Extension: ".java", TestFramework: "junit", Linter: "checkstyle", Formatter: "google-java-format", PackageFile: "pom.xml"},
	Cpp:        {Extension: ".cpp", TestFramework: "googletest", Linter: "clang-tidy", Formatter: "clang-format"},
	HTML:       {Extension: ".html", Linter: "htmlhint", Formatter: "prettier"},
	CSS:        {Extension: ".css", Linter: "stylelint", Formatter: "prettier"},
}

var aliases = map[string]Language{
	"py":      Python,
	"python3": Python,
	"js":      JavaScript,
	"node":    JavaScript,
	"ts":      TypeScript,
	"golang":  Go,
	"rs":      Rust,
	"c++":     Cpp,
	"cxx":     Cpp,
}

// ParseLanguage resolves a language name or alias, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if l, ok := aliases[key]; ok {
		return l, nil
	}
	if _, ok := languages[Language(key)]; ok {
		return Language(key), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}

// Supported reports whether l has a profile.
func (l Language) Supported() bool {
	_, ok := languages[l]
	return ok
}

// Info returns toolchain conventions; zero value for unknown languages.
func (l Language) Info() LanguageInfo {
	return languages[l]
}

// Extension returns the source file extension including the dot.
func (l Language) Extension() string {
	if info, ok := languages[l]; ok {
		return info.Extension
	}
	return ".txt"
}

func (l Language) String() string { return string(l) }

// Languages lists the supported languages in a stable order.
func Languages() []Language {
	return []Language{Python, JavaScript, TypeScript, Go, Rust, Java, Cpp, HTML, CSS}
}
