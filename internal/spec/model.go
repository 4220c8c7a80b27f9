package spec

// Document model produced by Decode. Everything here is an immutable snapshot
// of the source Swagger document; later stages never mutate it.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
)

// methodOrder is the stable order operations are read from a path item.
var methodOrder = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS}

// Parameter locations understood by the grouper.
const (
	InPath     = "path"
	InQuery    = "query"
	InBody     = "body"
	InFormData = "formData"
	InHeader   = "header"
)

// DefaultGroup is the group of operations that declare no tag.
const DefaultGroup = "default"

type Document struct {
	Swagger     string
	Title       string
	Version     string
	Description string
	Host        string
	BasePath    string
	Tags        []Tag
	Operations  []*Operation
	Definitions *DefinitionSet
}

type Tag struct {
	Name        string
	Description string
}

// Operation is one (method, path) pair of the source document.
type Operation struct {
	Method      HttpMethod
	Path        string
	Tags        []string
	OperationID string
	Summary     string
	Description string
	Deprecated  bool
	Consumes    []string
	Parameters  []*Parameter
	Responses   []*Response
}

// ID returns the identity of the operation inside a document.
func (o *Operation) ID() string { return string(o.Method) + " " + o.Path }

type Parameter struct {
	Name        string
	In          string
	Description string
	Required    bool
	Type        string
	Format      string
	Enum        []any
	Items       Node
	// Schema is only set for body parameters.
	Schema Node
}

type Response struct {
	Status      string
	Description string
	Schema      Node
}

// Definition is a named schema of a DefinitionSet.
type Definition struct {
	Name   string
	Schema Node
}

// DefinitionSet maps definition names to schemas while remembering the order
// in which the names were declared.
type DefinitionSet struct {
	names []string
	defs  map[string]Node
}

func NewDefinitionSet() *DefinitionSet {
	return &DefinitionSet{defs: make(map[string]Node)}
}

// Add stores a definition. Re-adding a name replaces its schema but keeps
// its original position.
func (d *DefinitionSet) Add(name string, n Node) {
	if _, ok := d.defs[name]; !ok {
		d.names = append(d.names, name)
	}
	d.defs[name] = n
}

func (d *DefinitionSet) Get(name string) (Node, bool) {
	if d == nil {
		return nil, false
	}
	n, ok := d.defs[name]
	return n, ok
}

func (d *DefinitionSet) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Names returns definition names in declaration order.
func (d *DefinitionSet) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

func (d *DefinitionSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// All returns the definitions in declaration order.
func (d *DefinitionSet) All() []Definition {
	if d == nil {
		return nil
	}
	out := make([]Definition, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, Definition{Name: name, Schema: d.defs[name]})
	}
	return out
}
