// Package tsemitter writes TypeScript request modules: one module per
// operation holding its types and request function, plus an index module
// per group.
package tsemitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how groups are written.
type Options struct {
	OutDir string // required; root directory for group directories
	// RequestModule is the import path of the request helper, e.g. "@/utils/request".
	RequestModule string
	// BasePath is prepended to request paths when non-empty.
	BasePath string
	Compiler TypeCompiler
	DryRun   bool // don't write, only plan
}

// Group is the emission input for one tag.
type Group struct {
	Name string
	// Dir is the group directory relative to OutDir.
	Dir        string
	Operations []Operation
	// Rewrite lists service names whose previous module must be deleted
	// before it is written again.
	Rewrite []string
	// Index lists every service exported by the group's index module, in
	// order. Services without a module on disk or in Operations are skipped.
	Index []string
	// Stale lists modules written under earlier service names. Each is
	// removed when it still carries the generated header and neither
	// Operations nor Index claims it.
	Stale []string
}

// File actions recorded in PlannedFile.
const (
	ActionWrite     = "write"
	ActionUnchanged = "unchanged"
	ActionRewrite   = "rewrite"
	ActionRemove    = "remove"
)

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
	Action  string
}

// Result returns the planned files in emission order.
type Result struct {
	Planned []PlannedFile
}

// Count returns how many planned files carry action.
func (r *Result) Count(action string) int {
	n := 0
	for _, p := range r.Planned {
		if p.Action == action {
			n++
		}
	}
	return n
}

// WriteError is a failed file write. Files written before the failure are
// kept.
type WriteError struct {
	RelPath string
	Err     error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.RelPath, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Emit renders and writes every group. Rendering happens before any write,
// so a compile failure leaves the output untouched.
func Emit(ctx context.Context, groups []Group, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("tsemitter: OutDir is required")
	}
	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}
	render := RenderOptions{RequestModule: opts.RequestModule, BasePath: opts.BasePath, Compiler: opts.Compiler}

	type file struct {
		rel     string
		content []byte
		rewrite bool
		remove  bool
	}
	var files []file
	for _, g := range groups {
		rewrite := map[string]bool{}
		for _, name := range g.Rewrite {
			rewrite[name] = true
		}
		emitted := map[string]bool{}
		for _, op := range g.Operations {
			text, err := RenderOperation(op, render)
			if err != nil {
				return nil, fmt.Errorf("group %s: %s: %w", g.Name, op.Names.ServiceName, err)
			}
			name := op.Names.ServiceName
			emitted[name] = true
			files = append(files, file{
				rel:     filepath.ToSlash(filepath.Join(g.Dir, name+".ts")),
				content: []byte(text),
				rewrite: rewrite[name],
			})
		}
		var index []string
		indexed := map[string]bool{}
		for _, name := range g.Index {
			indexed[name] = true
			if emitted[name] || fileExists(filepath.Join(abs, g.Dir, name+".ts")) {
				index = append(index, name)
			}
		}
		files = append(files, file{
			rel:     filepath.ToSlash(filepath.Join(g.Dir, "index.ts")),
			content: []byte(RenderIndex(index)),
		})
		for _, name := range g.Stale {
			if emitted[name] || indexed[name] {
				continue
			}
			if generated(filepath.Join(abs, g.Dir, name+".ts")) {
				files = append(files, file{rel: filepath.ToSlash(filepath.Join(g.Dir, name+".ts")), remove: true})
			}
		}
	}

	res := &Result{Planned: make([]PlannedFile, 0, len(files))}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(abs, filepath.FromSlash(f.rel))
		action := ActionWrite
		switch {
		case f.remove:
			action = ActionRemove
		case f.rewrite && fileExists(path):
			action = ActionRewrite
		case unchanged(path, f.content):
			action = ActionUnchanged
		}
		res.Planned = append(res.Planned, PlannedFile{RelPath: f.rel, Size: len(f.content), Mode: 0o644, Action: action})
		if opts.DryRun || action == ActionUnchanged {
			continue
		}
		if action == ActionRemove {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return res, &WriteError{RelPath: f.rel, Err: err}
			}
			continue
		}
		if err := writeFile(path, f.content, action == ActionRewrite); err != nil {
			return res, &WriteError{RelPath: f.rel, Err: err}
		}
	}
	return res, nil
}

func unchanged(path string, content []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, content)
}

// generated reports whether path is a module this emitter wrote.
func generated(path string) bool {
	data, err := os.ReadFile(path)
	return err == nil && bytes.HasPrefix(data, []byte(header))
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// writeFile writes through a temp file and rename. With replace set the
// previous file is removed first.
func writeFile(path string, content []byte, replace bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if replace {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove previous: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
