package internal

import (
	"strings"
	"unicode/utf8"
)

// PluginName prefixes every key this application writes to shared stores
const PluginName = "posttranslate"

// TruncateRunes cuts s to at most limit characters without an omission marker.
// A limit of zero or less returns s unchanged.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// SplitList splits a pipe separated setting value such as "de|fr|ja",
// dropping blanks and surrounding whitespace
func SplitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, "|") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// KeyFor namespaces a key-value store key
func KeyFor(name string) string {
	return PluginName + ":" + name
}
