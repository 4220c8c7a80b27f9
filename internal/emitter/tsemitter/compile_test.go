package tsemitter

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func falseSchema() *jsonschema.Schema { return &jsonschema.Schema{Not: &jsonschema.Schema{}} }

func petSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "A pet for sale",
		Properties: map[string]*jsonschema.Schema{
			"name":     {Type: "string", Description: "Pet name"},
			"category": {Ref: "#/definitions/Category"},
			"tags":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"status":   {Type: "string", Enum: []any{"available", "sold"}},
			"x-rate":   {Type: "number"},
		},
		PropertyOrder:        []string{"name", "category", "tags", "status", "x-rate"},
		Required:             []string{"name"},
		AdditionalProperties: falseSchema(),
	}
}

func TestCompile_Interface(t *testing.T) {
	got, err := TSCompiler{}.Compile("Pet", petSchema())
	require.NoError(t, err)
	want := `/** A pet for sale */
export interface Pet {
  /** Pet name */
  name: string;
  category?: Category;
  tags?: string[];
  status?: "available" | "sold";
  "x-rate"?: number;
}
`
	assert.Equal(t, want, got)
}

func TestCompile_Aliases(t *testing.T) {
	tests := []struct {
		name   string
		schema *jsonschema.Schema
		want   string
	}{
		{name: "nil", schema: nil, want: "export type T = any;\n"},
		{name: "ref", schema: &jsonschema.Schema{Ref: "#/definitions/Pet"}, want: "export type T = Pet;\n"},
		{name: "remote ref", schema: &jsonschema.Schema{Ref: "other.json#/Pet"}, want: "export type T = any;\n"},
		{name: "array of refs", schema: &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Ref: "#/definitions/Pet"}}, want: "export type T = Pet[];\n"},
		{name: "array of enum", schema: &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Enum: []any{1, 2}}}, want: "export type T = (1 | 2)[];\n"},
		{name: "multi type", schema: &jsonschema.Schema{Types: []string{"string", "null"}}, want: "export type T = string | null;\n"},
		{name: "binary", schema: &jsonschema.Schema{Type: "string", Format: "binary"}, want: "export type T = Blob;\n"},
		{name: "dictionary", schema: &jsonschema.Schema{Type: "object", AdditionalProperties: &jsonschema.Schema{Type: "integer"}}, want: "export type T = Record<string, number>;\n"},
		{name: "closed empty object", schema: &jsonschema.Schema{Type: "object", AdditionalProperties: falseSchema()}, want: "export type T = {};\n"},
		{name: "allOf", schema: &jsonschema.Schema{AllOf: []*jsonschema.Schema{{Ref: "#/definitions/A"}, {Ref: "#/definitions/B"}}}, want: "export type T = A & B;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TSCompiler{}.Compile("T", tt.schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_NestedObjectIndent(t *testing.T) {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"owner": {
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"id": {Type: "integer"}},
				Required:   []string{"id"},
			},
		},
	}
	got, err := TSCompiler{}.Compile("T", s)
	require.NoError(t, err)
	want := `export interface T {
  owner?: {
    id: number;
  };
}
`
	assert.Equal(t, want, got)
}
