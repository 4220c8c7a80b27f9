// Package naming derives identifiers for generated code from operation
// ids, paths and definition names, translating non-Latin fragments.
package naming

import (
	"strings"
	"unicode"
)

// ToPascalCase converts a string to PascalCase.
// Separators (underscore, hyphen, dot, slash, space) trigger capitalization
// of the next letter.
// Example: "user_profile" -> "UserProfile"
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}
	var result strings.Builder
	capitalizeNext := true
	for _, r := range s {
		if r == '_' || r == '-' || r == '.' || r == '/' || r == ' ' {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToCamelCase is ToPascalCase with the first letter lowercased.
// Example: "UserProfile" -> "userProfile"
func ToCamelCase(s string) string {
	return lowerFirst(ToPascalCase(s))
}

func lowerFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func upperFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// DefaultServiceName composes a function name from an operation's method and
// path when it has no operationId. Path placeholders become "By" markers.
// Example: ("get", "/pets/{id}") -> "getPetsById"
func DefaultServiceName(method, path string) string {
	words := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			words = append(words, "By"+ToPascalCase(strings.Trim(seg, "{}")))
			continue
		}
		words = append(words, seg)
	}
	return ToCamelCase(strings.Join(words, "_"))
}
