package spec

// Node is the closed set of schema shapes the generator understands. Each
// variant is decoded once from the source document; nothing downstream
// inspects raw maps to discover structure.
type Node interface {
	meta() *Meta
}

// Meta carries the fields shared by every schema variant.
type Meta struct {
	Title       string
	Description string
	// Required is the non-standard per-property `required: true` flag some
	// Swagger producers emit instead of an object-level list.
	Required bool
	// Definitions holds schema-local definitions, if any.
	Definitions *DefinitionSet
}

func (m *Meta) meta() *Meta { return m }

// MetaOf returns the shared fields of n, or nil for a nil node.
func MetaOf(n Node) *Meta {
	if n == nil {
		return nil
	}
	return n.meta()
}

// RefNode is a `$ref` schema. Siblings other than title/description are
// discarded at decode time.
type RefNode struct {
	Meta
	Ref string
}

// MultiNode is a schema whose `type` is a list. Raw keeps every other
// keyword verbatim; Children holds nested schemas so references inside the
// pass-through value are still visible to the resolver.
type MultiNode struct {
	Meta
	Types    []string
	Raw      map[string]any
	Children []Node
}

type PrimitiveNode struct {
	Meta
	Type   string
	Format string
	Enum   []any
}

type ArrayNode struct {
	Meta
	// Items may be nil.
	Items Node
}

// Property is an object member in declaration order.
type Property struct {
	Name   string
	Schema Node
}

type ObjectNode struct {
	Meta
	Properties []Property
	Required   []string
	// AdditionalProperties is set when the source declares a schema for
	// extra members.
	AdditionalProperties Node
	AllOf                []Node
}

// AnyNode is everything that is not one of the shapes above: untyped
// schemas, `file`, or pure compositions.
type AnyNode struct {
	Meta
	Type  string
	AllOf []Node
}

// PrimitiveTypes lists the scalar types emitted as plain schemas.
var PrimitiveTypes = map[string]bool{
	"string":  true,
	"boolean": true,
	"number":  true,
	"integer": true,
}
