package tsemitter

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mark3labs/swagger2api/internal/mapping"
)

const header = "/* eslint-disable */\n// Code generated by swagger2api. DO NOT EDIT.\n"

// Operation is one operation ready to be emitted. Schemas left nil are
// not declared; a nil Response is typed as any.
type Operation struct {
	Names       mapping.NameMapping
	Method      string
	Path        string
	Summary     string
	Description string
	Deprecated  bool

	PathParams *jsonschema.Schema
	Query      *jsonschema.Schema
	Body       *jsonschema.Schema
	// BodyRequired makes the body (or formData) argument mandatory.
	BodyRequired bool
	FormData     *jsonschema.Schema
	Response     *jsonschema.Schema
	// Definitions holds the definitions the schemas above reference, keyed
	// by emitted name.
	Definitions map[string]*jsonschema.Schema
}

// RenderOptions controls the text of an operation module.
type RenderOptions struct {
	// RequestModule is imported as the default export providing request().
	RequestModule string
	// BasePath is prepended to every request path when non-empty.
	BasePath string
	Compiler TypeCompiler
}

// bodyStyle reports whether the method sends a body or formData.
func bodyStyle(method string) bool {
	switch strings.ToLower(method) {
	case "post", "put", "patch":
		return true
	}
	return false
}

// RenderOperation renders the module of one operation: the definitions it
// needs, its parameter and response types, and one request function.
func RenderOperation(op Operation, opts RenderOptions) (string, error) {
	compiler := opts.Compiler
	if compiler == nil {
		compiler = TSCompiler{}
	}
	n := op.Names
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "import request from '%s';\n", opts.RequestModule)

	declared := map[string]bool{}
	declare := func(name string, s *jsonschema.Schema) error {
		if name == "" {
			return nil
		}
		if declared[name] {
			return fmt.Errorf("type %s is declared twice", name)
		}
		declared[name] = true
		text, err := compiler.Compile(name, s)
		if err != nil {
			return fmt.Errorf("compile %s: %w", name, err)
		}
		b.WriteString("\n")
		b.WriteString(text)
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(op.Definitions)) {
		if err := declare(name, op.Definitions[name]); err != nil {
			return "", err
		}
	}

	hasBody := bodyStyle(op.Method)
	pathName := orDerived(n.PathParamName, n.ServiceName, "Path", op.PathParams)
	queryName := orDerived(n.PathQueryName, n.ServiceName, "Query", op.Query)
	bodyName, formName := "", ""
	if hasBody {
		bodyName = orDerived(n.RequestBodyName, n.ServiceName, "Body", op.Body)
		if bodyName == "" {
			formName = orDerived(n.FormDataName, n.ServiceName, "FormData", op.FormData)
		}
	}
	responseName := orDerived(n.ResponseBodyName, n.ServiceName, "Response", &jsonschema.Schema{})

	for _, d := range []struct {
		name string
		s    *jsonschema.Schema
	}{
		{pathName, op.PathParams},
		{queryName, op.Query},
		{bodyName, op.Body},
		{formName, op.FormData},
		{responseName, op.Response},
	} {
		if err := declare(d.name, d.s); err != nil {
			return "", err
		}
	}

	var args []arg
	if pathName != "" {
		args = append(args, arg{"path", pathName, true})
	}
	switch {
	case bodyName != "":
		args = append(args, arg{"data", bodyName, op.BodyRequired})
	case formName != "":
		args = append(args, arg{"formData", formName, op.BodyRequired || len(op.FormData.Required) > 0})
	}
	if queryName != "" {
		args = append(args, arg{"query", queryName, len(op.Query.Required) > 0})
	}

	b.WriteString("\n")
	writeDoc(&b, "", functionDoc(op))
	fmt.Fprintf(&b, "export function %s(%s) {\n", n.ServiceName, signature(args))
	if formName != "" {
		b.WriteString("  const body = new FormData();\n")
		b.WriteString("  Object.entries(formData ?? {}).forEach(([key, value]) => {\n")
		b.WriteString("    if (value === undefined || value === null) return;\n")
		b.WriteString("    body.append(key, value instanceof Blob ? value : String(value));\n")
		b.WriteString("  });\n")
	}
	fmt.Fprintf(&b, "  return request<%s>({\n", responseName)
	fmt.Fprintf(&b, "    url: %s,\n", renderPathExpr(joinPath(opts.BasePath, op.Path), op.PathParams))
	fmt.Fprintf(&b, "    method: '%s',\n", strings.ToUpper(op.Method))
	if queryName != "" {
		b.WriteString("    params: query,\n")
	}
	switch {
	case bodyName != "":
		b.WriteString("    data,\n")
	case formName != "":
		b.WriteString("    data: body,\n")
	}
	b.WriteString("  });\n}\n")
	return b.String(), nil
}

// orDerived returns name, deriving it from the service name when the
// mapping leaves it empty. It returns "" when there is nothing to declare.
func orDerived(name, service, suffix string, s *jsonschema.Schema) string {
	if s == nil {
		return ""
	}
	if name != "" {
		return name
	}
	if service == "" {
		return suffix
	}
	return strings.ToUpper(service[:1]) + service[1:] + suffix
}

type arg struct {
	name     string
	typ      string
	required bool
}

// signature renders args. An optional argument followed by a required one
// is written as a required union with undefined.
func signature(args []arg) string {
	parts := make([]string, len(args))
	laterRequired := false
	for i := len(args) - 1; i >= 0; i-- {
		a := args[i]
		switch {
		case a.required:
			parts[i] = a.name + ": " + a.typ
			laterRequired = true
		case laterRequired:
			parts[i] = a.name + ": " + a.typ + " | undefined"
		default:
			parts[i] = a.name + "?: " + a.typ
		}
	}
	return strings.Join(parts, ", ")
}

func functionDoc(op Operation) []string {
	var lines []string
	if op.Summary != "" {
		lines = append(lines, op.Summary)
	}
	if op.Description != "" && op.Description != op.Summary {
		lines = append(lines, strings.Split(op.Description, "\n")...)
	}
	lines = append(lines, strings.ToUpper(op.Method)+" "+op.Path)
	if op.Deprecated {
		lines = append(lines, "@deprecated")
	}
	return lines
}

func joinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return path
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// renderPathExpr substitutes `{name}` placeholders with path arguments.
func renderPathExpr(path string, params *jsonschema.Schema) string {
	if params == nil || len(params.Properties) == 0 {
		return fmt.Sprintf("'%s'", path)
	}
	out := path
	for _, name := range propertyOrder(params) {
		needle := "{" + name + "}"
		repl := "${encodeURIComponent(String(path" + tsAccess(name) + "))}"
		out = strings.ReplaceAll(out, needle, repl)
	}
	return "`" + out + "`"
}

// RenderIndex renders a module re-exporting the function of every service.
func RenderIndex(services []string) string {
	var b strings.Builder
	b.WriteString(header)
	if len(services) > 0 {
		b.WriteString("\n")
	}
	for _, s := range services {
		fmt.Fprintf(&b, "export { %s } from './%s';\n", s, s)
	}
	return b.String()
}
