package schema

import (
	"maps"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mark3labs/swagger2api/internal/spec"
)

// NameLookup maps a source definition name to the name it is emitted
// under. It is passed to every conversion call so a run's naming decisions
// never live in shared state.
type NameLookup interface {
	DefinitionName(original string) string
}

// Converter turns decoded schemas into *jsonschema.Schema values.
type Converter struct {
	// TreeShake limits ConvertRoot's definitions to those reachable from
	// the root. Otherwise every document definition is attached.
	TreeShake bool
}

// Convert converts one schema node. A nil node converts to the open schema.
func (c Converter) Convert(n spec.Node, names NameLookup) *jsonschema.Schema {
	if n == nil {
		return &jsonschema.Schema{}
	}
	out := c.convert(n, names)
	m := spec.MetaOf(n)
	out.Title = m.Title
	out.Description = m.Description
	if m.Definitions.Len() > 0 {
		out.Definitions = c.definitions(m.Definitions, names)
	}
	return out
}

func (c Converter) convert(n spec.Node, names NameLookup) *jsonschema.Schema {
	switch v := n.(type) {
	case *spec.RefNode:
		if name, ok := LocalName(v.Ref); ok {
			return &jsonschema.Schema{Ref: definitionsPrefix + names.DefinitionName(name)}
		}
		return &jsonschema.Schema{Ref: v.Ref}

	case *spec.MultiNode:
		s := &jsonschema.Schema{Types: slices.Clone(v.Types)}
		if len(v.Raw) > 0 {
			s.Extra = maps.Clone(v.Raw)
		}
		return s

	case *spec.PrimitiveNode:
		s := &jsonschema.Schema{Type: v.Type, Format: v.Format}
		if len(v.Enum) > 0 {
			s.Enum = slices.Clone(v.Enum)
		}
		return s

	case *spec.ArrayNode:
		return &jsonschema.Schema{Type: "array", Items: c.Convert(v.Items, names)}

	case *spec.ObjectNode:
		return c.object(v, names)

	case *spec.AnyNode:
		s := &jsonschema.Schema{}
		if v.Type == "file" {
			s.Type, s.Format = "string", "binary"
		}
		for _, part := range v.AllOf {
			s.AllOf = append(s.AllOf, c.Convert(part, names))
		}
		return s
	}
	return &jsonschema.Schema{}
}

func (c Converter) object(v *spec.ObjectNode, names NameLookup) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(v.Properties)),
	}
	required := slices.Clone(v.Required)
	for _, p := range v.Properties {
		s.Properties[p.Name] = c.Convert(p.Schema, names)
		s.PropertyOrder = append(s.PropertyOrder, p.Name)
		if spec.MetaOf(p.Schema).Required && !slices.Contains(required, p.Name) {
			required = append(required, p.Name)
		}
	}
	if len(required) > 0 {
		s.Required = required
	}
	if v.AdditionalProperties != nil {
		s.AdditionalProperties = c.Convert(v.AdditionalProperties, names)
	} else {
		s.AdditionalProperties = falseSchema()
	}
	for _, part := range v.AllOf {
		s.AllOf = append(s.AllOf, c.Convert(part, names))
	}
	return s
}

// ConvertRoot converts root and attaches the definitions it needs under
// `definitions`, keyed by emitted name. With TreeShake set only the
// definitions reachable from root are attached.
func (c Converter) ConvertRoot(root spec.Node, all *spec.DefinitionSet, names NameLookup) (*jsonschema.Schema, []Warning) {
	defs := all
	var warnings []Warning
	if c.TreeShake {
		defs, warnings = Resolve(root, all)
	}
	out := c.Convert(root, names)
	if defs.Len() > 0 {
		if out.Definitions == nil {
			out.Definitions = map[string]*jsonschema.Schema{}
		}
		maps.Copy(out.Definitions, c.definitions(defs, names))
	}
	return out, warnings
}

func (c Converter) definitions(set *spec.DefinitionSet, names NameLookup) map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, set.Len())
	for _, def := range set.All() {
		out[names.DefinitionName(def.Name)] = c.Convert(def.Schema, names)
	}
	return out
}

// falseSchema is the JSON Schema `false`: it matches nothing.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

// IsFalse reports whether s is the schema produced for `false`.
func IsFalse(s *jsonschema.Schema) bool {
	if s == nil || s.Not == nil {
		return false
	}
	return isEmpty(s.Not) && s.Type == "" && len(s.Properties) == 0
}

func isEmpty(s *jsonschema.Schema) bool {
	return s.Type == "" && len(s.Types) == 0 && s.Ref == "" && len(s.Properties) == 0 &&
		s.Items == nil && len(s.AllOf) == 0 && len(s.Enum) == 0
}

// identity is the NameLookup that keeps source names.
type identity struct{}

func (identity) DefinitionName(original string) string { return original }

// sourceNames is the NameLookup that emits definitions under their source names.
var sourceNames NameLookup = identity{}
