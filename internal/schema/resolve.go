package schema

import (
	"fmt"

	"github.com/mark3labs/swagger2api/internal/spec"
)

// Warning is a tolerated resolution problem. Resolution continues after
// a warning.
type Warning struct {
	// Name is the referenced definition.
	Name string
	// From is the definition holding the reference, empty for the root.
	From    string
	Message string
}

func (w Warning) String() string {
	if w.From == "" {
		return fmt.Sprintf("%s: %s", w.Name, w.Message)
	}
	return fmt.Sprintf("%s (from %s): %s", w.Name, w.From, w.Message)
}

// Resolve computes the definitions of all that are transitively referenced
// from root. The result keeps the declaration order of all. A referenced
// name missing from all resolves to an empty schema and a Warning; the
// placeholders follow the declared definitions in discovery order.
//
// Cycles terminate because a name enters the work queue at most once.
func Resolve(root spec.Node, all *spec.DefinitionSet) (*spec.DefinitionSet, []Warning) {
	found := map[string]bool{}
	var queue []string
	var missing []string
	var warnings []Warning

	enqueue := func(from string, names []string) {
		for _, name := range names {
			if found[name] {
				continue
			}
			found[name] = true
			if !all.Has(name) {
				missing = append(missing, name)
				warnings = append(warnings, Warning{Name: name, From: from, Message: "dangling reference, using an empty schema"})
				continue
			}
			queue = append(queue, name)
		}
	}

	enqueue("", LocalRefs(root))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		def, _ := all.Get(name)
		enqueue(name, LocalRefs(def))
	}

	out := spec.NewDefinitionSet()
	for _, def := range all.All() {
		if found[def.Name] {
			out.Add(def.Name, def.Schema)
		}
	}
	for _, name := range missing {
		out.Add(name, &spec.AnyNode{})
	}
	return out, warnings
}
