package generate

import (
	"slices"
	"strings"

	"github.com/mark3labs/swagger2api/internal/spec"
)

// parameterObject builds the object schema holding params as members.
// It returns nil when params is empty.
func parameterObject(params []*spec.Parameter) spec.Node {
	if len(params) == 0 {
		return nil
	}
	obj := &spec.ObjectNode{}
	for _, p := range params {
		if slices.ContainsFunc(obj.Properties, func(prop spec.Property) bool { return prop.Name == p.Name }) {
			continue
		}
		obj.Properties = append(obj.Properties, spec.Property{Name: p.Name, Schema: parameterNode(p)})
		if p.Required {
			obj.Required = append(obj.Required, p.Name)
		}
	}
	return obj
}

// parameterNode is the schema of one non-body parameter.
func parameterNode(p *spec.Parameter) spec.Node {
	meta := spec.Meta{Description: p.Description}
	switch {
	case p.Type == "array":
		return &spec.ArrayNode{Meta: meta, Items: p.Items}
	case spec.PrimitiveTypes[p.Type]:
		return &spec.PrimitiveNode{Meta: meta, Type: p.Type, Format: p.Format, Enum: p.Enum}
	}
	return &spec.AnyNode{Meta: meta, Type: p.Type}
}

// successResponse picks the schema of the first 2xx response, falling back
// to "default".
func successResponse(op *spec.Operation) spec.Node {
	var fallback spec.Node
	for _, r := range op.Responses {
		if strings.HasPrefix(r.Status, "2") && r.Schema != nil {
			return r.Schema
		}
		if r.Status == "default" {
			fallback = r.Schema
		}
	}
	return fallback
}
