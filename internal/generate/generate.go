// Package generate runs the whole pipeline for one document: grouping,
// naming, schema conversion, name-mapping reconciliation and emission.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mark3labs/swagger2api/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2api/internal/logging"
	"github.com/mark3labs/swagger2api/internal/mapping"
	"github.com/mark3labs/swagger2api/internal/naming"
	"github.com/mark3labs/swagger2api/internal/schema"
	"github.com/mark3labs/swagger2api/internal/spec"
	"github.com/mark3labs/swagger2api/internal/version"
)

// StateDirName is the default directory, under OutDir, holding the
// persisted name mappings.
const StateDirName = ".swagger2api"

// Options controls one generation run.
type Options struct {
	Selection spec.Selection
	OutDir    string
	// RequestModule is the import path of the request helper.
	RequestModule string
	// BasePathPrefix prepends the document's basePath to request urls.
	BasePathPrefix bool
	// TreeShake limits each module to the definitions it reaches.
	TreeShake bool
	// StateDir defaults to OutDir/.swagger2api.
	StateDir string
	// Namer defaults to a Namer without translation.
	Namer    *naming.Namer
	Compiler tsemitter.TypeCompiler
	Logger   logging.Logger
	DryRun   bool
	// Progress, when set, is called after each converted schema.
	Progress func(current, total int)
}

// GroupSummary reports what happened to one group.
type GroupSummary struct {
	Name       string
	Dir        string
	Operations int
	Written    int
	Unchanged  int
	// Rewritten lists services whose previous module was replaced.
	Rewritten []string
	// Removed lists modules left behind by renamed services.
	Removed   []string
	StatePath string
}

// Summary is the outcome of Run.
type Summary struct {
	Groups   []GroupSummary
	Files    []tsemitter.PlannedFile
	Warnings []schema.Warning
}

// Run generates request modules for every selected group of doc. Groups
// are processed one at a time; a failure stops the run but keeps the files
// and records already written.
func Run(ctx context.Context, doc *spec.Document, opts Options) (*Summary, error) {
	if doc == nil {
		return nil, errors.New("generate: nil document")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("generate: OutDir is required")
	}
	if err := opts.Selection.Validate(); err != nil {
		return nil, err
	}
	log := logging.OrNop(opts.Logger)
	namer := opts.Namer
	if namer == nil {
		namer = naming.NewNamer(nil, log)
	}
	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = filepath.Join(opts.OutDir, StateDirName)
	}

	r := &runner{
		doc:      doc,
		opts:     opts,
		log:      log,
		namer:    namer,
		store:    mapping.FileStore{Dir: stateDir},
		conv:     schema.Converter{TreeShake: opts.TreeShake},
		reported: map[string]bool{},
	}

	groups := spec.GroupOperations(doc, opts.Selection, log)
	if len(groups) == 0 {
		log.Warn("no operations selected")
	}
	planned := make([][]plannedOp, len(groups))
	for i, g := range groups {
		planned[i] = r.plan(g)
		for _, p := range planned[i] {
			r.total += len(p.roots())
		}
	}

	sum := &Summary{}
	usedDirs := map[string]bool{}
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		dir, err := namer.Identifier(ctx, g.Name)
		if err != nil {
			return sum, fmt.Errorf("group %s: %w", g.Name, err)
		}
		dir = naming.Unique(naming.ToCamelCase(dir), usedDirs)

		gs, files, err := r.group(ctx, g, dir, planned[i])
		sum.Files = append(sum.Files, files...)
		if err != nil {
			return sum, fmt.Errorf("group %s: %w", g.Name, err)
		}
		sum.Groups = append(sum.Groups, gs)
	}
	sum.Warnings = r.warnings
	return sum, nil
}

type runner struct {
	doc   *spec.Document
	opts  Options
	log   logging.Logger
	namer *naming.Namer
	store mapping.FileStore
	conv  schema.Converter

	current, total int
	warnings       []schema.Warning
	reported       map[string]bool
}

// plannedOp is an operation with its parameters classified into the
// schemas that will be converted.
type plannedOp struct {
	op           *spec.Operation
	path         spec.Node
	query        spec.Node
	body         spec.Node
	bodyRequired bool
	formData     spec.Node
	response     spec.Node
}

func (p plannedOp) roots() []spec.Node {
	var out []spec.Node
	for _, n := range []spec.Node{p.path, p.query, p.body, p.formData, p.response} {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (r *runner) plan(g *spec.Group) []plannedOp {
	out := make([]plannedOp, 0, len(g.Operations))
	for _, op := range g.Operations {
		pg := spec.ClassifyParameters(op, r.log)
		p := plannedOp{
			op:       op,
			path:     parameterObject(pg.Path),
			query:    parameterObject(pg.Query),
			response: successResponse(op),
		}
		if sendsBody(op.Method) {
			switch {
			case pg.Body != nil:
				p.body = pg.Body.Schema
				if p.body == nil {
					p.body = &spec.AnyNode{}
				}
				p.bodyRequired = pg.Body.Required
				if len(pg.FormData) > 0 {
					r.log.Warn("ignoring formData parameters next to a body", "operation", op.ID())
				}
			default:
				p.formData = parameterObject(pg.FormData)
			}
		} else if pg.Body != nil || len(pg.FormData) > 0 {
			r.log.Debug("method sends no body, skipping body parameters", "operation", op.ID())
		}
		out = append(out, p)
	}
	return out
}

func sendsBody(m spec.HttpMethod) bool {
	return m == spec.POST || m == spec.PUT || m == spec.PATCH
}

func (r *runner) group(ctx context.Context, g *spec.Group, dir string, ops []plannedOp) (GroupSummary, []tsemitter.PlannedFile, error) {
	log := r.log.With("group", g.Name)
	gs := GroupSummary{Name: g.Name, Dir: dir, Operations: len(ops)}

	fresh := &mapping.GroupResult{
		ToolVersion: version.Short(),
		BasePath:    r.doc.BasePath,
		GroupName:   g.Name,
		CreateTime:  time.Now().UTC().Format(time.RFC3339),
	}
	usedServices := map[string]bool{}
	typeNames := map[string]bool{}
	for _, p := range ops {
		service, err := r.namer.ServiceName(ctx, p.op)
		if err != nil {
			return gs, nil, err
		}
		service = naming.Unique(service, usedServices)
		m := freshMapping(p, service)
		for _, name := range m.TypeNames() {
			typeNames[name] = true
		}
		fresh.Mappings = append(fresh.Mappings, m)
	}

	// Definitions share a module with the operation types, so they yield.
	defNames, err := r.namer.DefinitionNames(ctx, r.neededDefinitions(ops), typeNames)
	if err != nil {
		return gs, nil, err
	}
	for _, original := range sortedKeys(defNames, r.doc.Definitions) {
		fresh.DefNames = append(fresh.DefNames, mapping.DefNameMapping{Original: original, Name: defNames[original]})
	}

	persisted, err := r.store.Load(r.doc.BasePath, g.Name)
	switch {
	case errors.Is(err, mapping.ErrCorruptState):
		log.Warn("ignoring unreadable name mapping state", "error", err)
		persisted = nil
	case err != nil:
		return gs, nil, err
	}
	if mapping.NewerTool(persisted, fresh.ToolVersion) {
		log.Warn("name mapping state was written by a newer version", "recorded", persisted.ToolVersion, "running", fresh.ToolVersion)
	}
	merged, changed := mapping.Merge(fresh, persisted)

	eg := tsemitter.Group{Name: g.Name, Dir: dir, Rewrite: changed}
	for i, p := range ops {
		names, _ := merged.Find(fresh.Mappings[i].Key())
		eg.Operations = append(eg.Operations, r.convert(p, names, defNames))
		if fresh.Mappings[i].ServiceName != names.ServiceName {
			eg.Stale = append(eg.Stale, fresh.Mappings[i].ServiceName)
		}
	}
	for _, m := range merged.NameMappingList {
		eg.Index = append(eg.Index, m.ServiceName)
	}

	basePath := ""
	if r.opts.BasePathPrefix {
		basePath = r.doc.BasePath
	}
	res, err := tsemitter.Emit(ctx, []tsemitter.Group{eg}, tsemitter.Options{
		OutDir:        r.opts.OutDir,
		RequestModule: r.opts.RequestModule,
		BasePath:      basePath,
		Compiler:      r.opts.Compiler,
		DryRun:        r.opts.DryRun,
	})
	var files []tsemitter.PlannedFile
	if res != nil {
		files = res.Planned
		gs.Written = res.Count(tsemitter.ActionWrite) + res.Count(tsemitter.ActionRewrite)
		gs.Unchanged = res.Count(tsemitter.ActionUnchanged)
		for _, f := range res.Planned {
			name := strings.TrimSuffix(filepath.Base(f.RelPath), ".ts")
			switch f.Action {
			case tsemitter.ActionRewrite:
				gs.Rewritten = append(gs.Rewritten, name)
			case tsemitter.ActionRemove:
				gs.Removed = append(gs.Removed, name)
			}
		}
	}
	if err != nil {
		return gs, files, err
	}

	gs.StatePath = r.store.Path(r.doc.BasePath, g.Name)
	if r.opts.DryRun {
		return gs, files, nil
	}
	if err := r.store.Save(merged); err != nil {
		return gs, files, err
	}
	log.Info("generated group", "dir", dir, "operations", len(ops), "written", gs.Written, "unchanged", gs.Unchanged)
	return gs, files, nil
}

// neededDefinitions lists the definitions the group's modules declare, in
// document order, followed by dangling reference names. Without
// tree-shaking every declared definition is needed.
func (r *runner) neededDefinitions(ops []plannedOp) []string {
	found := map[string]bool{}
	var dangling []string
	for _, p := range ops {
		for _, root := range p.roots() {
			set, _ := schema.Resolve(root, r.doc.Definitions)
			for _, name := range set.Names() {
				if found[name] {
					continue
				}
				found[name] = true
				if !r.doc.Definitions.Has(name) {
					dangling = append(dangling, name)
				}
			}
		}
	}
	var out []string
	for _, name := range r.doc.Definitions.Names() {
		if found[name] || !r.opts.TreeShake {
			out = append(out, name)
		}
	}
	return append(out, dangling...)
}

// sortedKeys orders the keys of names by declaration in defs, then by first
// appearance for names defs does not declare.
func sortedKeys(names naming.DefNames, defs *spec.DefinitionSet) []string {
	out := make([]string, 0, len(names))
	for _, name := range defs.Names() {
		if _, ok := names[name]; ok {
			out = append(out, name)
		}
	}
	if len(out) == len(names) {
		return out
	}
	seen := map[string]bool{}
	for _, name := range out {
		seen[name] = true
	}
	var rest []string
	for name := range names {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func freshMapping(p plannedOp, service string) mapping.NameMapping {
	first, size := utf8.DecodeRuneInString(service)
	prefix := string(unicode.ToUpper(first)) + service[size:]
	m := mapping.NameMapping{
		Path:             p.op.Path,
		Method:           string(p.op.Method),
		ServiceName:      service,
		ResponseBodyName: prefix + "Response",
	}
	if p.path != nil {
		m.PathParamName = prefix + "Path"
	}
	if p.query != nil {
		m.PathQueryName = prefix + "Query"
	}
	if p.body != nil {
		m.RequestBodyName = prefix + "Body"
	}
	if p.formData != nil {
		m.FormDataName = prefix + "FormData"
	}
	return m
}

// convert turns p into an emitter operation, reporting progress after each
// schema.
func (r *runner) convert(p plannedOp, names mapping.NameMapping, defNames naming.DefNames) tsemitter.Operation {
	out := tsemitter.Operation{
		Names:        names,
		Method:       string(p.op.Method),
		Path:         p.op.Path,
		Summary:      p.op.Summary,
		Description:  p.op.Description,
		Deprecated:   p.op.Deprecated,
		BodyRequired: p.bodyRequired,
		Definitions:  map[string]*jsonschema.Schema{},
	}
	for _, slot := range []struct {
		node spec.Node
		dst  **jsonschema.Schema
	}{
		{p.path, &out.PathParams},
		{p.query, &out.Query},
		{p.body, &out.Body},
		{p.formData, &out.FormData},
		{p.response, &out.Response},
	} {
		if slot.node == nil {
			continue
		}
		s, warnings := r.conv.ConvertRoot(slot.node, r.doc.Definitions, defNames)
		for name, def := range s.Definitions {
			out.Definitions[name] = def
		}
		if !r.opts.TreeShake {
			// Every definition is attached already; only dangling names
			// still need an empty declaration.
			_, warnings = schema.Resolve(slot.node, r.doc.Definitions)
			for _, w := range warnings {
				out.Definitions[defNames.DefinitionName(w.Name)] = &jsonschema.Schema{}
			}
		}
		s.Definitions = nil
		*slot.dst = s
		r.warn(p.op, warnings)

		r.current++
		if r.opts.Progress != nil {
			r.opts.Progress(r.current, r.total)
		}
	}
	return out
}

func (r *runner) warn(op *spec.Operation, warnings []schema.Warning) {
	for _, w := range warnings {
		if r.reported[w.String()] {
			continue
		}
		r.reported[w.String()] = true
		r.warnings = append(r.warnings, w)
		r.log.Warn(w.Message, "definition", w.Name, "from", w.From, "operation", op.ID())
	}
}
