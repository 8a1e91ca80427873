package agents

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/fyrsmithlabs/airo/internal/project"
)

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// words splits s on camel-case boundaries and non-alphanumerics and
// returns the lowercased parts.
func words(s string) []string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
			b.WriteRune(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Fields(nonWord.ReplaceAllString(b.String(), " "))
}

// SourceFilename names the file for a component: the first three words of
// its name (or responsibility when the name has none) joined by "_", plus
// the language extension. Java files use the PascalCase name.
func SourceFilename(c project.ComponentSpec, lang project.Language) string {
	parts := words(c.Name)
	if len(parts) == 0 {
		parts = words(c.Responsibility)
	}

	if lang == project.Java {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(strings.ToUpper(p[:1]) + p[1:])
		}
		if b.Len() == 0 || !unicode.IsLetter(rune(b.String()[0])) {
			return "GeneratedCode" + b.String() + lang.Extension()
		}
		return b.String() + lang.Extension()
	}

	if len(parts) > 3 {
		parts = parts[:3]
	}
	base := strings.Join(parts, "_")
	if base == "" {
		base = "generated_code"
	}
	return base + lang.Extension()
}

// TestFilename returns the conventional test path for a source file.
func TestFilename(source string, lang project.Language) string {
	ext := path.Ext(source)
	base := strings.TrimSuffix(path.Base(source), ext)
	switch lang {
	case project.Python:
		return "test_" + base + ".py"
	case project.JavaScript:
		return base + ".test.js"
	case project.TypeScript:
		return base + ".test.ts"
	case project.Go:
		return base + "_test.go"
	case project.Rust:
		return "tests/" + base + "_test.rs"
	case project.Java:
		return base + "Test.java"
	default:
		if ext == "" {
			ext = lang.Extension()
		}
		return "test_" + base + ext
	}
}
