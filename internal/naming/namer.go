package naming

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"github.com/mark3labs/swagger2api/internal/logging"
	"github.com/mark3labs/swagger2api/internal/spec"
)

// Translator turns a non-Latin fragment into capitalized English words.
// *translate.Service implements it.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ErrNoTranslator is returned for non-Latin input when no Translator is set.
var ErrNoTranslator = errors.New("non-Latin text needs a translate engine")

// Namer derives identifiers from arbitrary text.
type Namer struct {
	tr  Translator
	log logging.Logger
}

// NewNamer returns a Namer. tr may be nil when every input is Latin.
func NewNamer(tr Translator, log logging.Logger) *Namer {
	return &Namer{tr: tr, log: logging.OrNop(log)}
}

type runClass int

const (
	classSeparator runClass = iota
	classLatin
	classForeign
)

func classify(r rune) runClass {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'):
		return classLatin
	case unicode.Is(unicode.Latin, r):
		return classLatin
	case unicode.IsLetter(r):
		return classForeign
	}
	return classSeparator
}

// Identifier turns text into a valid identifier. Latin runs are kept as
// they are, non-Latin runs are translated, and anything else is dropped
// while capitalizing the following run.
//
//	"get pet-list"   -> "getPetList"
//	"查询宠物 by id" -> "QueryPetById"
func (n *Namer) Identifier(ctx context.Context, text string) (string, error) {
	var sb strings.Builder
	capitalize := false
	runes := []rune(text)
	for i := 0; i < len(runes); {
		class := classify(runes[i])
		j := i + 1
		for j < len(runes) && classify(runes[j]) == class {
			j++
		}
		run := string(runes[i:j])
		i = j

		switch class {
		case classSeparator:
			capitalize = sb.Len() > 0
			continue
		case classForeign:
			if n.tr == nil {
				return "", fmt.Errorf("%w: %q", ErrNoTranslator, text)
			}
			out, err := n.tr.Translate(ctx, run)
			if err != nil {
				return "", err
			}
			run = out
			if sb.Len() > 0 {
				run = upperFirst(run)
			}
		}
		if capitalize {
			run = upperFirst(run)
			capitalize = false
		}
		sb.WriteString(run)
	}

	id := sb.String()
	if id == "" {
		return "", fmt.Errorf("cannot derive an identifier from %q", text)
	}
	if unicode.IsDigit([]rune(id)[0]) {
		id = "_" + id
	}
	return id, nil
}

// ServiceName names the function generated for op: its operationId when
// present, otherwise a composition of method and path.
func (n *Namer) ServiceName(ctx context.Context, op *spec.Operation) (string, error) {
	source := op.OperationID
	if source == "" {
		source = DefaultServiceName(string(op.Method), op.Path)
	}
	id, err := n.Identifier(ctx, source)
	if err != nil {
		return "", err
	}
	id = lowerFirst(id)
	if reserved[id] {
		id += "Api"
	}
	return id, nil
}

// TypeName is Identifier in PascalCase.
func (n *Namer) TypeName(ctx context.Context, text string) (string, error) {
	id, err := n.Identifier(ctx, text)
	if err != nil {
		return "", err
	}
	return upperFirst(id), nil
}

// DefNames maps source definition names to emitted type names for one run.
type DefNames map[string]string

// DefinitionName returns the emitted name for original, or original itself
// when it was never named.
func (d DefNames) DefinitionName(original string) string {
	if v, ok := d[original]; ok {
		return v
	}
	return original
}

// DefinitionNames names every definition in names. Distinct definitions
// that collapse to the same identifier, or to a name in taken, get numeric
// suffixes. taken is left unmodified.
func (n *Namer) DefinitionNames(ctx context.Context, names []string, taken map[string]bool) (DefNames, error) {
	out := make(DefNames, len(names))
	used := make(map[string]bool, len(taken))
	maps.Copy(used, taken)
	for _, name := range names {
		if _, done := out[name]; done {
			continue
		}
		id, err := n.TypeName(ctx, name)
		if err != nil {
			return nil, err
		}
		id = Unique(id, used)
		if id != name {
			n.log.Debug("renamed definition", "definition", name, "name", id)
		}
		out[name] = id
	}
	return out, nil
}

// Unique returns name, or name with the smallest numeric suffix not in
// used, and records the result in used.
func Unique(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	used[candidate] = true
	return candidate
}

// reserved lists TypeScript words that cannot name a function.
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
}
