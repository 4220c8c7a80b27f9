package spec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/swagger2api/internal/logging"
)

// Selection decides which operations are generated. An empty Selection
// selects every operation of the document.
type Selection struct {
	// IncludeTags limits generation to these tags when non-empty.
	IncludeTags []string
	// ExcludeTags wins over IncludeTags.
	ExcludeTags []string
	// Operations limits generation to "METHOD /path" entries when non-empty.
	Operations []string
}

// ParseOperationKey parses "GET /pets/{id}" into its method and path.
func ParseOperationKey(s string) (HttpMethod, string, error) {
	method, path, ok := strings.Cut(strings.TrimSpace(s), " ")
	path = strings.TrimSpace(path)
	if !ok || path == "" || !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("operation %q: expected \"METHOD /path\"", s)
	}
	m := HttpMethod(strings.ToLower(method))
	if !slices.Contains(methodOrder, m) {
		return "", "", fmt.Errorf("operation %q: unknown method %q", s, method)
	}
	return m, path, nil
}

// Validate reports malformed operation keys.
func (s Selection) Validate() error {
	for _, k := range s.Operations {
		if _, _, err := ParseOperationKey(k); err != nil {
			return err
		}
	}
	return nil
}

func (s Selection) selectsOperation(op *Operation) bool {
	if len(s.Operations) == 0 {
		return true
	}
	for _, k := range s.Operations {
		m, p, err := ParseOperationKey(k)
		if err == nil && m == op.Method && p == op.Path {
			return true
		}
	}
	return false
}

func (s Selection) selectsTag(tag string) bool {
	if slices.Contains(s.ExcludeTags, tag) {
		return false
	}
	return len(s.IncludeTags) == 0 || slices.Contains(s.IncludeTags, tag)
}

// Group is a named bucket of operations. Output files and persisted name
// mappings are scoped to one group.
type Group struct {
	Name       string
	Operations []*Operation
}

// GroupOperations buckets the selected operations of doc by tag. An
// operation carrying several tags is placed in every selected tag's group;
// untagged operations land in DefaultGroup. Groups follow the document's
// declared tag order, then first use.
func GroupOperations(doc *Document, sel Selection, log logging.Logger) []*Group {
	log = logging.OrNop(log)
	byName := map[string]*Group{}
	var order []string
	add := func(name string, op *Operation) {
		g, ok := byName[name]
		if !ok {
			g = &Group{Name: name}
			byName[name] = g
			order = append(order, name)
		}
		g.Operations = append(g.Operations, op)
	}

	for _, op := range doc.Operations {
		if !sel.selectsOperation(op) {
			continue
		}
		tags := op.Tags
		if len(tags) == 0 {
			tags = []string{DefaultGroup}
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			if seen[tag] || !sel.selectsTag(tag) {
				continue
			}
			seen[tag] = true
			add(tag, op)
		}
		if len(seen) == 0 {
			log.Debug("operation not selected", "operation", op.ID())
		}
	}

	rank := make(map[string]int, len(doc.Tags))
	for i, t := range doc.Tags {
		rank[t.Name] = i
	}
	slices.SortStableFunc(order, func(a, b string) int {
		ra, aok := rank[a]
		rb, bok := rank[b]
		switch {
		case aok && bok:
			return ra - rb
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})

	out := make([]*Group, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// ParameterGroup is an operation's parameters classified by location.
type ParameterGroup struct {
	Path     []*Parameter
	Query    []*Parameter
	FormData []*Parameter
	// Body is nil when the operation takes no body.
	Body *Parameter
}

// ClassifyParameters partitions op's parameters into path, query, body and
// formData. Other locations are not generated and are skipped.
func ClassifyParameters(op *Operation, log logging.Logger) ParameterGroup {
	log = logging.OrNop(log)
	var pg ParameterGroup
	for _, p := range op.Parameters {
		switch p.In {
		case InPath:
			pg.Path = append(pg.Path, p)
		case InQuery:
			pg.Query = append(pg.Query, p)
		case InFormData:
			pg.FormData = append(pg.FormData, p)
		case InBody:
			if pg.Body != nil {
				log.Warn("ignoring extra body parameter", "operation", op.ID(), "parameter", p.Name)
				continue
			}
			pg.Body = p
		default:
			log.Debug("skipping parameter location", "operation", op.ID(), "parameter", p.Name, "in", p.In)
		}
	}
	return pg
}
