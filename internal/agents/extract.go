package agents

import (
	"regexp"
	"strings"
)

var (
	taggedFence = regexp.MustCompile("(?s)```([A-Za-z0-9_+#.-]+)[ \\t]*\\r?\\n(.*?)```")
	bareFence   = regexp.MustCompile("(?s)```[ \\t]*\\r?\\n(.*?)```")
)

// ExtractCode returns the body of the first language-tagged fenced block,
// then the first bare fenced block, and otherwise the trimmed text itself.
// lang is the lowercased fence tag, empty when none was given.
func ExtractCode(text string) (code, lang string) {
	if m := taggedFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2]), strings.ToLower(m[1])
	}
	if m := bareFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	return strings.TrimSpace(text), ""
}
