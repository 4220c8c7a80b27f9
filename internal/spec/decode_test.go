package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreV2 = `swagger: "2.0"
info:
  title: Petstore
  version: "1.0.0"
host: petstore.example.com
basePath: /v2
tags:
  - name: pet
    description: Everything about your pets
parameters:
  petIdParam:
    name: petId
    in: path
    type: integer
    format: int64
paths:
  /pet/{petId}:
    parameters:
      - $ref: '#/parameters/petIdParam'
    get:
      tags: [pet]
      operationId: getPetById
      summary: Find pet by ID
      responses:
        "200":
          description: ok
          schema:
            $ref: '#/definitions/Pet'
        "404":
          description: not found
  /pet:
    post:
      tags: [pet, store]
      parameters:
        - in: body
          name: body
          required: true
          schema:
            $ref: '#/definitions/Pet'
      responses:
        "200":
          description: ok
  /pet/findByStatus:
    get:
      tags: [pet]
      parameters:
        - name: status
          in: query
          type: array
          items:
            type: string
            enum: [available, pending, sold]
        - name: X-Trace
          in: header
          type: string
      responses:
        "200":
          description: ok
          schema:
            type: array
            items:
              $ref: '#/definitions/Pet'
definitions:
  Pet:
    type: object
    required: [name]
    properties:
      name:
        type: string
      category:
        $ref: '#/definitions/Category'
      tags:
        type: array
        items: { type: string }
  Category:
    title: Category
    properties:
      id: { type: integer, format: int64, required: true }
      label: { type: string }
`

func TestDecode_Petstore(t *testing.T) {
	doc, err := Decode([]byte(petstoreV2))
	require.NoError(t, err)

	assert.Equal(t, "Petstore", doc.Title)
	assert.Equal(t, "/v2", doc.BasePath)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "pet", doc.Tags[0].Name)

	require.Len(t, doc.Operations, 3)
	get := doc.Operations[0]
	assert.Equal(t, GET, get.Method)
	assert.Equal(t, "/pet/{petId}", get.Path)
	assert.Equal(t, "getPetById", get.OperationID)
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "petId", get.Parameters[0].Name)
	assert.True(t, get.Parameters[0].Required, "path parameters are always required")
	require.Len(t, get.Responses, 2)
	ref, ok := get.Responses[0].Schema.(*RefNode)
	require.True(t, ok)
	assert.Equal(t, "#/definitions/Pet", ref.Ref)

	post := doc.Operations[1]
	assert.Equal(t, []string{"pet", "store"}, post.Tags)
	assert.Equal(t, InBody, post.Parameters[0].In)
}

func TestDecode_SchemaVariants(t *testing.T) {
	doc, err := Decode([]byte(petstoreV2))
	require.NoError(t, err)

	pet, ok := doc.Definitions.Get("Pet")
	require.True(t, ok)
	obj, ok := pet.(*ObjectNode)
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, obj.Required)
	names := make([]string, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"name", "category", "tags"}, names, "properties keep source order")
	_, isArray := obj.Properties[2].Schema.(*ArrayNode)
	assert.True(t, isArray)

	cat, _ := doc.Definitions.Get("Category")
	catObj, ok := cat.(*ObjectNode)
	require.True(t, ok, "untyped schema with properties is an object")
	assert.Equal(t, "Category", catObj.Title)
	assert.True(t, MetaOf(catObj.Properties[0].Schema).Required, "per-property required flag")
}

func TestDecode_MultiTypeAndAny(t *testing.T) {
	doc, err := Decode([]byte(`swagger: "2.0"
info: { title: t, version: "1" }
paths: {}
definitions:
  Multi:
    type: [string, "null"]
    maxLength: 10
    description: either
  Loose:
    description: anything
  WithRef:
    $ref: '#/definitions/Loose'
    type: object
    title: kept
`))
	require.NoError(t, err)

	multi, _ := doc.Definitions.Get("Multi")
	m, ok := multi.(*MultiNode)
	require.True(t, ok)
	assert.Equal(t, []string{"string", "null"}, m.Types)
	assert.Equal(t, 10, m.Raw["maxLength"])
	assert.NotContains(t, m.Raw, "description")

	loose, _ := doc.Definitions.Get("Loose")
	_, ok = loose.(*AnyNode)
	assert.True(t, ok)

	withRef, _ := doc.Definitions.Get("WithRef")
	r, ok := withRef.(*RefNode)
	require.True(t, ok, "$ref wins over sibling keywords")
	assert.Equal(t, "kept", r.Title)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not an object", doc: "- a\n- b\n"},
		{name: "wrong version", doc: "swagger: '1.2'\n"},
		{name: "parameter without in", doc: "swagger: '2.0'\npaths:\n  /x:\n    get:\n      parameters:\n        - name: a\n"},
		{name: "unknown parameter ref", doc: "swagger: '2.0'\npaths:\n  /x:\n    get:\n      parameters:\n        - $ref: '#/parameters/nope'\n"},
		{name: "schema not an object", doc: "swagger: '2.0'\ndefinitions:\n  A: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			var se *SpecError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ParseError, se.Code)
		})
	}
}
