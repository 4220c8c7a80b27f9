package tsemitter

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mark3labs/swagger2api/internal/schema"
)

// TypeCompiler renders one named schema as declaration text.
type TypeCompiler interface {
	Compile(name string, s *jsonschema.Schema) (string, error)
}

// TSCompiler renders schemas as TypeScript interfaces and type aliases.
// Only local references ("#/definitions/Name") are rendered by name.
type TSCompiler struct{}

var _ TypeCompiler = TSCompiler{}

func (TSCompiler) Compile(name string, s *jsonschema.Schema) (string, error) {
	if s == nil {
		s = &jsonschema.Schema{}
	}
	var b strings.Builder
	writeDoc(&b, "", docLines(s))
	if isInterface(s) {
		b.WriteString("export interface " + name + " ")
		b.WriteString(objectBody(s, ""))
		b.WriteString("\n")
		return b.String(), nil
	}
	b.WriteString("export type " + name + " = " + expr(s, "") + ";\n")
	return b.String(), nil
}

// isInterface reports whether s renders as an interface declaration.
func isInterface(s *jsonschema.Schema) bool {
	return s.Ref == "" && len(s.AllOf) == 0 && len(s.Enum) == 0 && len(s.Types) == 0 &&
		(s.Type == "object" || s.Type == "") && len(s.Properties) > 0
}

func expr(s *jsonschema.Schema, indent string) string {
	if s == nil {
		return "any"
	}
	if s.Ref != "" {
		if name, ok := strings.CutPrefix(s.Ref, "#/definitions/"); ok {
			return name
		}
		return "any"
	}
	if len(s.Enum) > 0 {
		lits := make([]string, 0, len(s.Enum))
		for _, v := range s.Enum {
			lits = append(lits, literal(v))
		}
		return strings.Join(lits, " | ")
	}
	if len(s.Types) > 0 {
		parts := make([]string, 0, len(s.Types))
		for _, t := range s.Types {
			parts = append(parts, scalar(t, "", s, indent))
		}
		return strings.Join(parts, " | ")
	}
	if len(s.AllOf) > 0 {
		parts := make([]string, 0, len(s.AllOf))
		for _, part := range s.AllOf {
			parts = append(parts, wrap(expr(part, indent)))
		}
		if s.Type == "object" && (len(s.Properties) > 0 || !schema.IsFalse(s.AdditionalProperties)) {
			parts = append(parts, objectBody(s, indent))
		}
		return strings.Join(parts, " & ")
	}
	return scalar(s.Type, s.Format, s, indent)
}

func scalar(typ, format string, s *jsonschema.Schema, indent string) string {
	switch typ {
	case "string":
		if format == "binary" {
			return "Blob"
		}
		return "string"
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	case "null":
		return "null"
	case "array":
		if s.Items == nil || len(s.Types) > 0 {
			return "any[]"
		}
		return wrap(expr(s.Items, indent)) + "[]"
	case "object":
		if len(s.Types) > 0 {
			return "Record<string, any>"
		}
		return objectBody(s, indent)
	case "":
		if len(s.Properties) > 0 {
			return objectBody(s, indent)
		}
	}
	return "any"
}

// objectBody renders the members of an object schema.
func objectBody(s *jsonschema.Schema, indent string) string {
	extra := s.AdditionalProperties
	if len(s.Properties) == 0 {
		switch {
		case schema.IsFalse(extra):
			return "{}"
		case extra == nil:
			return "Record<string, any>"
		default:
			return "Record<string, " + expr(extra, indent) + ">"
		}
	}

	inner := indent + "  "
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, name := range propertyOrder(s) {
		p := s.Properties[name]
		writeDoc(&b, inner, docLines(p))
		b.WriteString(inner + propName(name))
		if !required[name] {
			b.WriteString("?")
		}
		b.WriteString(": " + expr(p, inner) + ";\n")
	}
	if extra != nil && !schema.IsFalse(extra) {
		b.WriteString(inner + "[key: string]: any;\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

// propertyOrder prefers declaration order and falls back to sorted names.
func propertyOrder(s *jsonschema.Schema) []string {
	if len(s.PropertyOrder) == 0 {
		return slices.Sorted(maps.Keys(s.Properties))
	}
	out := make([]string, 0, len(s.Properties))
	seen := map[string]bool{}
	for _, name := range s.PropertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

func wrap(e string) string {
	if strings.ContainsAny(e, "|&") && !strings.HasPrefix(e, "{") {
		return "(" + e + ")"
	}
	return e
}

func literal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "any"
	}
	return string(data)
}

func docLines(s *jsonschema.Schema) []string {
	var lines []string
	if s.Title != "" && s.Title != s.Description {
		lines = append(lines, s.Title)
	}
	if s.Description != "" {
		lines = append(lines, strings.Split(strings.TrimSpace(s.Description), "\n")...)
	}
	return lines
}

func writeDoc(b *strings.Builder, indent string, lines []string) {
	if len(lines) == 0 {
		return
	}
	if len(lines) == 1 {
		fmt.Fprintf(b, "%s/** %s */\n", indent, escapeComment(lines[0]))
		return
	}
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		fmt.Fprintf(b, "%s * %s\n", indent, escapeComment(strings.TrimRight(l, " \r")))
	}
	b.WriteString(indent + " */\n")
}

func escapeComment(s string) string {
	return strings.ReplaceAll(s, "*/", "*\\/")
}

func propName(name string) string {
	if isSafeTSProp(name) {
		return name
	}
	return fmt.Sprintf("%q", name)
}

func tsAccess(name string) string {
	if isSafeTSProp(name) {
		return "." + name
	}
	return "[" + fmt.Sprintf("%q", name) + "]"
}

func isSafeTSProp(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' || r == '$'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}
