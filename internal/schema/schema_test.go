package schema

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2api/internal/spec"
)

func ref(name string) *spec.RefNode { return &spec.RefNode{Ref: "#/definitions/" + name} }

func object(props ...spec.Property) *spec.ObjectNode { return &spec.ObjectNode{Properties: props} }

func prop(name string, n spec.Node) spec.Property { return spec.Property{Name: name, Schema: n} }

func TestLocalRefs(t *testing.T) {
	root := object(
		prop("a", ref("A")),
		prop("list", &spec.ArrayNode{Items: ref("B")}),
		prop("again", ref("A")),
		prop("remote", &spec.RefNode{Ref: "https://example.com/schemas.json#/Pet"}),
		prop("nested", &spec.ObjectNode{AdditionalProperties: ref("C~1D")}),
		prop("multi", &spec.MultiNode{Types: []string{"object", "null"}, Children: []spec.Node{ref("E")}}),
		prop("all", &spec.AnyNode{AllOf: []spec.Node{ref("F")}}),
	)
	assert.Equal(t, []string{"A", "B", "C/D", "E", "F"}, LocalRefs(root))
}

func TestLocalName(t *testing.T) {
	name, ok := LocalName("#/definitions/Pet/properties/id")
	require.True(t, ok)
	assert.Equal(t, "Pet", name)

	for _, r := range []string{"#/parameters/x", "other.json#/definitions/Pet", "#/definitions/"} {
		_, ok := LocalName(r)
		assert.False(t, ok, r)
	}
}

func TestResolve_TreeShaking(t *testing.T) {
	all := spec.NewDefinitionSet()
	all.Add("A", object(prop("x", &spec.PrimitiveNode{Type: "string"})))
	all.Add("B", object(prop("a", ref("A"))))
	all.Add("C", object())

	got, warnings := Resolve(object(prop("b", ref("B"))), all)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"A", "B"}, got.Names())
}

func TestResolve_Cycles(t *testing.T) {
	all := spec.NewDefinitionSet()
	all.Add("Node", object(prop("next", ref("Node")), prop("owner", ref("Tree"))))
	all.Add("Tree", object(prop("root", ref("Node"))))
	all.Add("Unused", object(prop("self", ref("Unused"))))

	got, warnings := Resolve(ref("Tree"), all)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"Node", "Tree"}, got.Names())
}

func TestResolve_DanglingReference(t *testing.T) {
	all := spec.NewDefinitionSet()
	all.Add("A", object(prop("ghost", ref("Ghost"))))

	got, warnings := Resolve(ref("A"), all)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Ghost", warnings[0].Name)
	assert.Equal(t, "A", warnings[0].From)
	assert.Equal(t, []string{"A", "Ghost"}, got.Names())
	ghost, _ := got.Get("Ghost")
	assert.IsType(t, &spec.AnyNode{}, ghost)
}

// TestResolve_ClosureProperties checks, on random reference graphs, that the
// result is a subset of the input, contains every direct reference of the
// root and is closed under references.
func TestResolve_ClosureProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		n := 1 + r.IntN(12)
		all := spec.NewDefinitionSet()
		name := func(i int) string { return fmt.Sprintf("D%d", i) }
		for i := 0; i < n; i++ {
			obj := object()
			for j := 0; j < r.IntN(4); j++ {
				obj.Properties = append(obj.Properties, prop(fmt.Sprintf("p%d", j), ref(name(r.IntN(n)))))
			}
			all.Add(name(i), obj)
		}
		root := object(prop("x", ref(name(r.IntN(n)))), prop("y", ref(name(r.IntN(n)))))

		got, warnings := Resolve(root, all)
		require.Empty(t, warnings)
		for _, def := range got.All() {
			require.True(t, all.Has(def.Name))
			for _, dep := range LocalRefs(def.Schema) {
				require.True(t, got.Has(dep), "round %d: %s -> %s not closed", round, def.Name, dep)
			}
		}
		for _, dep := range LocalRefs(root) {
			require.True(t, got.Has(dep))
		}
		require.True(t, slices.IsSortedFunc(got.Names(), func(a, b string) int {
			return slices.Index(all.Names(), a) - slices.Index(all.Names(), b)
		}), "declaration order kept")
	}
}

func TestConvert_RequiredFromListAndFlags(t *testing.T) {
	obj := &spec.ObjectNode{
		Meta: spec.Meta{Title: "Thing", Description: "a thing"},
		Properties: []spec.Property{
			prop("a", &spec.PrimitiveNode{Meta: spec.Meta{Required: true}, Type: "string"}),
			prop("b", &spec.PrimitiveNode{Type: "number"}),
		},
	}
	s := Converter{}.Convert(obj, sourceNames)
	assert.Equal(t, []string{"a"}, s.Required)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, "Thing", s.Title)
	assert.Equal(t, "a thing", s.Description)
	assert.Equal(t, []string{"a", "b"}, s.PropertyOrder)
	assert.True(t, IsFalse(s.AdditionalProperties))
	assert.Equal(t, "number", s.Properties["b"].Type)

	obj.Required = []string{"b", "a"}
	s = Converter{}.Convert(obj, sourceNames)
	assert.Equal(t, []string{"b", "a"}, s.Required, "no duplicates")
}

type upper map[string]string

func (u upper) DefinitionName(original string) string {
	if v, ok := u[original]; ok {
		return v
	}
	return original
}

func TestConvert_Variants(t *testing.T) {
	names := upper{"宠物": "Pet"}
	c := Converter{}

	s := c.Convert(&spec.RefNode{Meta: spec.Meta{Description: "the pet"}, Ref: "#/definitions/宠物"}, names)
	assert.Equal(t, "#/definitions/Pet", s.Ref)
	assert.Equal(t, "the pet", s.Description)

	s = c.Convert(&spec.RefNode{Ref: "remote.json#/Pet"}, names)
	assert.Equal(t, "remote.json#/Pet", s.Ref, "remote references stay opaque")

	s = c.Convert(&spec.PrimitiveNode{Type: "string", Enum: []any{"a", "b"}}, names)
	assert.Equal(t, []any{"a", "b"}, s.Enum)

	s = c.Convert(&spec.ArrayNode{}, names)
	require.NotNil(t, s.Items)
	assert.Equal(t, "", s.Items.Type, "missing items become the open schema")

	s = c.Convert(&spec.MultiNode{Types: []string{"string", "null"}, Raw: map[string]any{"maxLength": 3}}, names)
	assert.Equal(t, []string{"string", "null"}, s.Types)
	assert.Equal(t, 3, s.Extra["maxLength"])

	s = c.Convert(&spec.AnyNode{Type: "file"}, names)
	assert.Equal(t, "binary", s.Format)

	s = c.Convert(&spec.ObjectNode{AdditionalProperties: &spec.PrimitiveNode{Type: "integer"}}, names)
	assert.Equal(t, "integer", s.AdditionalProperties.Type)
	assert.False(t, IsFalse(s.AdditionalProperties))

	s = c.Convert(nil, names)
	assert.NotNil(t, s)
}

func TestConvertRoot_AttachesDefinitions(t *testing.T) {
	all := spec.NewDefinitionSet()
	all.Add("A", object())
	all.Add("B", object(prop("a", ref("A"))))
	all.Add("C", object())
	root := object(prop("b", ref("B")))

	s, warnings := Converter{TreeShake: true}.ConvertRoot(root, all, sourceNames)
	assert.Empty(t, warnings)
	assert.ElementsMatch(t, []string{"A", "B"}, slices.Collect(maps.Keys(s.Definitions)))
	assert.Equal(t, "#/definitions/A", s.Definitions["B"].Properties["a"].Ref)

	s, _ = Converter{}.ConvertRoot(root, all, sourceNames)
	assert.Len(t, s.Definitions, 3)
}
