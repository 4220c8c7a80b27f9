// Package schema resolves local definition references and converts
// decoded Swagger schemas into the generic JSON Schema form consumed by
// code emitters.
package schema

import (
	"iter"
	"strings"

	"github.com/mark3labs/swagger2api/internal/spec"
)

// Walk returns an iterator over n and every schema nested below it,
// including schema-local definitions. Decoded trees are finite, so no cycle
// tracking is needed: references are visited as RefNode leaves and never
// followed.
func Walk(n spec.Node) iter.Seq[spec.Node] {
	return func(yield func(spec.Node) bool) {
		walk(n, yield)
	}
}

func walk(n spec.Node, yield func(spec.Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}

	for _, def := range spec.MetaOf(n).Definitions.All() {
		if !walk(def.Schema, yield) {
			return false
		}
	}

	switch v := n.(type) {
	case *spec.ArrayNode:
		return walk(v.Items, yield)
	case *spec.ObjectNode:
		for _, p := range v.Properties {
			if !walk(p.Schema, yield) {
				return false
			}
		}
		if !walk(v.AdditionalProperties, yield) {
			return false
		}
		return walkAll(v.AllOf, yield)
	case *spec.AnyNode:
		return walkAll(v.AllOf, yield)
	case *spec.MultiNode:
		return walkAll(v.Children, yield)
	}
	return true
}

func walkAll(nodes []spec.Node, yield func(spec.Node) bool) bool {
	for _, c := range nodes {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

const definitionsPrefix = "#/definitions/"

// LocalName returns the definition name a local reference points at.
// Remote and non-definition references report false.
func LocalName(ref string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, definitionsPrefix)
	if !ok || rest == "" {
		return "", false
	}
	// "#/definitions/Pet/properties/id" still depends on Pet.
	rest, _, _ = strings.Cut(rest, "/")
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(rest), true
}

// LocalRefs returns the names of all definitions referenced anywhere below
// n, deduplicated, in first-seen order.
func LocalRefs(n spec.Node) []string {
	var out []string
	seen := map[string]bool{}
	for node := range Walk(n) {
		ref, ok := node.(*spec.RefNode)
		if !ok {
			continue
		}
		name, ok := LocalName(ref.Ref)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
