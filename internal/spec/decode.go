package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses a Swagger 2.0 document (YAML or JSON) into a Document.
// Mapping order of the source is kept for paths, properties and
// definitions so regenerations stay byte-stable.
func Decode(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}
	top := deref(&root)
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = deref(top.Content[0])
	}
	if top.Kind != yaml.MappingNode {
		return nil, parseErr("#", "document root must be an object")
	}
	d := &decoder{
		parameters: map[string]*Parameter{},
		responses:  map[string]*Response{},
	}
	return d.document(top)
}

type decoder struct {
	parameters map[string]*Parameter
	responses  map[string]*Response
}

func (d *decoder) document(top *yaml.Node) (*Document, error) {
	doc := &Document{
		Swagger:     scalar(get(top, "swagger")),
		Host:        scalar(get(top, "host")),
		BasePath:    scalar(get(top, "basePath")),
		Definitions: NewDefinitionSet(),
	}
	if !strings.HasPrefix(doc.Swagger, "2.") {
		return nil, parseErr("#/swagger", fmt.Sprintf("unsupported swagger version %q (expected 2.x)", doc.Swagger))
	}
	if info := get(top, "info"); info != nil {
		doc.Title = strings.TrimSpace(scalar(get(info, "title")))
		doc.Version = strings.TrimSpace(scalar(get(info, "version")))
		doc.Description = strings.TrimSpace(scalar(get(info, "description")))
	}
	if tags := get(top, "tags"); tags != nil && tags.Kind == yaml.SequenceNode {
		for _, t := range tags.Content {
			t = deref(t)
			name := strings.TrimSpace(scalar(get(t, "name")))
			if name == "" {
				continue
			}
			doc.Tags = append(doc.Tags, Tag{Name: name, Description: scalar(get(t, "description"))})
		}
	}

	if defs := get(top, "definitions"); defs != nil {
		set, err := definitionSet(defs, "#/definitions")
		if err != nil {
			return nil, err
		}
		doc.Definitions = set
	}

	for _, kv := range pairs(get(top, "parameters")) {
		p, err := d.parameter(kv.val, "#/parameters/"+escapePointer(kv.key))
		if err != nil {
			return nil, err
		}
		d.parameters[kv.key] = p
	}
	for _, kv := range pairs(get(top, "responses")) {
		r, err := d.response(kv.key, kv.val, "#/responses/"+escapePointer(kv.key))
		if err != nil {
			return nil, err
		}
		d.responses[kv.key] = r
	}

	for _, pathKV := range pairs(get(top, "paths")) {
		if strings.HasPrefix(pathKV.key, "x-") {
			continue
		}
		item := pathKV.val
		ptr := "#/paths/" + escapePointer(pathKV.key)
		base, err := d.parameterList(get(item, "parameters"), ptr+"/parameters")
		if err != nil {
			return nil, err
		}
		for _, m := range methodOrder {
			opNode := get(item, string(m))
			if opNode == nil {
				continue
			}
			op, err := d.operation(m, pathKV.key, opNode, base, ptr+"/"+string(m))
			if err != nil {
				return nil, err
			}
			doc.Operations = append(doc.Operations, op)
		}
	}
	return doc, nil
}

func (d *decoder) operation(m HttpMethod, path string, n *yaml.Node, base []*Parameter, ptr string) (*Operation, error) {
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(ptr, "operation must be an object")
	}
	op := &Operation{
		Method:      m,
		Path:        path,
		OperationID: strings.TrimSpace(scalar(get(n, "operationId"))),
		Summary:     strings.TrimSpace(scalar(get(n, "summary"))),
		Description: strings.TrimSpace(scalar(get(n, "description"))),
		Deprecated:  scalar(get(n, "deprecated")) == "true",
		Tags:        stringList(get(n, "tags")),
		Consumes:    stringList(get(n, "consumes")),
	}

	own, err := d.parameterList(get(n, "parameters"), ptr+"/parameters")
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(base, own)

	for _, kv := range pairs(get(n, "responses")) {
		if strings.HasPrefix(kv.key, "x-") {
			continue
		}
		r, err := d.response(kv.key, kv.val, ptr+"/responses/"+escapePointer(kv.key))
		if err != nil {
			return nil, err
		}
		op.Responses = append(op.Responses, r)
	}
	return op, nil
}

// mergeParameters overlays operation-level parameters on path-level ones,
// keyed by (in, name), keeping first-declared order.
func mergeParameters(base, own []*Parameter) []*Parameter {
	out := make([]*Parameter, 0, len(base)+len(own))
	index := make(map[string]int, len(base)+len(own))
	for _, list := range [][]*Parameter{base, own} {
		for _, p := range list {
			key := paramKey(p.In, p.Name)
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func paramKey(in, name string) string { return in + ":" + name }

func (d *decoder) parameterList(n *yaml.Node, ptr string) ([]*Parameter, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, parseErr(ptr, "parameters must be a list")
	}
	out := make([]*Parameter, 0, len(n.Content))
	for i, pn := range n.Content {
		pn = deref(pn)
		itemPtr := fmt.Sprintf("%s/%d", ptr, i)
		if ref := scalar(get(pn, "$ref")); ref != "" {
			name, ok := strings.CutPrefix(ref, "#/parameters/")
			if !ok {
				return nil, parseErr(itemPtr, fmt.Sprintf("unsupported parameter reference %q", ref))
			}
			p, found := d.parameters[unescapePointer(name)]
			if !found {
				return nil, parseErr(itemPtr, fmt.Sprintf("unknown parameter reference %q", ref))
			}
			out = append(out, p)
			continue
		}
		p, err := d.parameter(pn, itemPtr)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) parameter(n *yaml.Node, ptr string) (*Parameter, error) {
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(ptr, "parameter must be an object")
	}
	p := &Parameter{
		Name:        strings.TrimSpace(scalar(get(n, "name"))),
		In:          strings.TrimSpace(scalar(get(n, "in"))),
		Description: strings.TrimSpace(scalar(get(n, "description"))),
		Required:    scalar(get(n, "required")) == "true",
		Type:        strings.TrimSpace(scalar(get(n, "type"))),
		Format:      strings.TrimSpace(scalar(get(n, "format"))),
	}
	if p.Name == "" || p.In == "" {
		return nil, parseErr(ptr, "parameter must declare name and in")
	}
	if p.In == InPath {
		p.Required = true
	}
	if en := get(n, "enum"); en != nil {
		if err := en.Decode(&p.Enum); err != nil {
			return nil, parseErr(ptr+"/enum", err.Error())
		}
	}
	var err error
	if p.Items, err = schemaNode(get(n, "items"), ptr+"/items"); err != nil {
		return nil, err
	}
	if p.Schema, err = schemaNode(get(n, "schema"), ptr+"/schema"); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *decoder) response(status string, n *yaml.Node, ptr string) (*Response, error) {
	if ref := scalar(get(n, "$ref")); ref != "" {
		name, ok := strings.CutPrefix(ref, "#/responses/")
		if !ok {
			return nil, parseErr(ptr, fmt.Sprintf("unsupported response reference %q", ref))
		}
		shared, found := d.responses[unescapePointer(name)]
		if !found {
			return nil, parseErr(ptr, fmt.Sprintf("unknown response reference %q", ref))
		}
		r := *shared
		r.Status = status
		return &r, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(ptr, "response must be an object")
	}
	s, err := schemaNode(get(n, "schema"), ptr+"/schema")
	if err != nil {
		return nil, err
	}
	return &Response{
		Status:      status,
		Description: strings.TrimSpace(scalar(get(n, "description"))),
		Schema:      s,
	}, nil
}

func definitionSet(n *yaml.Node, ptr string) (*DefinitionSet, error) {
	set := NewDefinitionSet()
	if n == nil {
		return set, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(ptr, "definitions must be an object")
	}
	for _, kv := range pairs(n) {
		s, err := schemaNode(kv.val, ptr+"/"+escapePointer(kv.key))
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = &AnyNode{}
		}
		set.Add(kv.key, s)
	}
	return set, nil
}

// schemaNode decodes one schema object into its tagged variant.
func schemaNode(n *yaml.Node, ptr string) (Node, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, parseErr(ptr, "schema must be an object")
	}

	meta := Meta{
		Title:       scalar(get(n, "title")),
		Description: scalar(get(n, "description")),
	}
	req := get(n, "required")
	if req != nil && req.Kind == yaml.ScalarNode {
		meta.Required = req.Value == "true"
	}
	if defs := get(n, "definitions"); defs != nil {
		set, err := definitionSet(defs, ptr+"/definitions")
		if err != nil {
			return nil, err
		}
		meta.Definitions = set
	}

	if ref := get(n, "$ref"); ref != nil {
		return &RefNode{Meta: meta, Ref: scalar(ref)}, nil
	}

	allOf, err := schemaList(get(n, "allOf"), ptr+"/allOf")
	if err != nil {
		return nil, err
	}

	typ := get(n, "type")
	if typ != nil && typ.Kind == yaml.SequenceNode {
		return multiNode(n, meta, typ, ptr)
	}
	t := strings.TrimSpace(scalar(typ))
	props := get(n, "properties")

	switch {
	case PrimitiveTypes[t]:
		p := &PrimitiveNode{Meta: meta, Type: t, Format: scalar(get(n, "format"))}
		if en := get(n, "enum"); en != nil {
			if err := en.Decode(&p.Enum); err != nil {
				return nil, parseErr(ptr+"/enum", err.Error())
			}
		}
		return p, nil
	case t == "array":
		items, err := schemaNode(get(n, "items"), ptr+"/items")
		if err != nil {
			return nil, err
		}
		return &ArrayNode{Meta: meta, Items: items}, nil
	case t == "object" || (t == "" && props != nil):
		obj := &ObjectNode{Meta: meta, AllOf: allOf}
		if req != nil && req.Kind == yaml.SequenceNode {
			obj.Required = stringList(req)
		}
		for _, kv := range pairs(props) {
			s, err := schemaNode(kv.val, ptr+"/properties/"+escapePointer(kv.key))
			if err != nil {
				return nil, err
			}
			if s == nil {
				s = &AnyNode{}
			}
			obj.Properties = append(obj.Properties, Property{Name: kv.key, Schema: s})
		}
		if ap := deref(get(n, "additionalProperties")); ap != nil && ap.Kind == yaml.MappingNode {
			if obj.AdditionalProperties, err = schemaNode(ap, ptr+"/additionalProperties"); err != nil {
				return nil, err
			}
		}
		return obj, nil
	default:
		return &AnyNode{Meta: meta, Type: t, AllOf: allOf}, nil
	}
}

func multiNode(n *yaml.Node, meta Meta, typ *yaml.Node, ptr string) (Node, error) {
	m := &MultiNode{Meta: meta, Types: stringList(typ)}
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return nil, parseErr(ptr, err.Error())
	}
	for _, k := range []string{"type", "title", "description", "definitions"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		m.Raw = raw
	}
	// Nested schemas are decoded only so references stay discoverable.
	if items, err := schemaNode(get(n, "items"), ptr+"/items"); err != nil {
		return nil, err
	} else if items != nil {
		m.Children = append(m.Children, items)
	}
	for _, kv := range pairs(get(n, "properties")) {
		s, err := schemaNode(kv.val, ptr+"/properties/"+escapePointer(kv.key))
		if err != nil {
			return nil, err
		}
		if s != nil {
			m.Children = append(m.Children, s)
		}
	}
	return m, nil
}

func schemaList(n *yaml.Node, ptr string) ([]Node, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, parseErr(ptr, "expected a list of schemas")
	}
	out := make([]Node, 0, len(n.Content))
	for i, c := range n.Content {
		s, err := schemaNode(c, fmt.Sprintf("%s/%d", ptr, i))
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

type keyValue struct {
	key string
	val *yaml.Node
}

// pairs returns the entries of a mapping node in source order.
func pairs(n *yaml.Node) []keyValue {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]keyValue, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, keyValue{key: n.Content[i].Value, val: deref(n.Content[i+1])})
	}
	return out
}

func get(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func scalar(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func stringList(n *yaml.Node) []string {
	n = deref(n)
	if n == nil {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		if v := strings.TrimSpace(n.Value); v != "" {
			return []string{v}
		}
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if v := strings.TrimSpace(scalar(c)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func unescapePointer(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}

func parseErr(ptr, msg string) error {
	return &SpecError{Code: ParseError, Message: "spec: " + msg, JSONPointer: ptr}
}
