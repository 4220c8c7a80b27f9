package spec

import "slices"

// normalizeBodies rewrites non-compliant Swagger v2 operations so every
// operation ends up with at most one body parameter and never mixes a body
// with formData:
//   - If an operation contains multiple body parameters, they are merged into
//     a single body parameter whose schema is an object with one property per
//     original parameter.
//   - If an operation mixes body and formData parameters, all body parameters
//     are converted to formData equivalents and the operation consumes
//     multipart/form-data.
//
// It returns the operations that were rewritten.
func normalizeBodies(doc *Document) []*Operation {
	var changed []*Operation
	for i, op := range doc.Operations {
		fixed, ok := normalizeOperation(op)
		if !ok {
			continue
		}
		doc.Operations[i] = fixed
		changed = append(changed, fixed)
	}
	return changed
}

func normalizeOperation(op *Operation) (*Operation, bool) {
	bodyCount := 0
	hasFormData := false
	for _, p := range op.Parameters {
		switch p.In {
		case InBody:
			bodyCount++
		case InFormData:
			hasFormData = true
		}
	}
	if bodyCount == 0 || (bodyCount == 1 && !hasFormData) {
		return op, false
	}

	out := *op
	if hasFormData {
		out.Parameters = make([]*Parameter, 0, len(op.Parameters))
		for _, p := range op.Parameters {
			if p.In == InBody {
				out.Parameters = append(out.Parameters, formDataFromBody(p))
				continue
			}
			out.Parameters = append(out.Parameters, p)
		}
		if !slices.Contains(out.Consumes, "multipart/form-data") {
			out.Consumes = append(slices.Clone(op.Consumes), "multipart/form-data")
		}
		return &out, true
	}

	merged := &ObjectNode{}
	rest := make([]*Parameter, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		if p.In != InBody {
			rest = append(rest, p)
			continue
		}
		s := p.Schema
		if s == nil {
			s = &PrimitiveNode{Type: "string"}
		}
		merged.Properties = append(merged.Properties, Property{Name: p.Name, Schema: s})
		if p.Required {
			merged.Required = append(merged.Required, p.Name)
		}
	}
	body := &Parameter{Name: "body", In: InBody, Required: len(merged.Required) > 0, Schema: merged}
	out.Parameters = append([]*Parameter{body}, rest...)
	return &out, true
}

// formDataFromBody derives a formData-compatible parameter; anything that
// cannot be represented as a form field degrades to string.
func formDataFromBody(p *Parameter) *Parameter {
	fd := &Parameter{
		Name:        p.Name,
		In:          InFormData,
		Description: p.Description,
		Required:    p.Required,
		Type:        "string",
	}
	switch s := p.Schema.(type) {
	case *PrimitiveNode:
		fd.Type = s.Type
		fd.Format = s.Format
		fd.Enum = s.Enum
	case *ArrayNode:
		fd.Type = "array"
		fd.Items = s.Items
	}
	return fd
}
