package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorruptState marks a persisted record that cannot be used. Callers
// treat it as absent state.
var ErrCorruptState = errors.New("corrupt name mapping state")

// FileStore keeps one JSON record per (basePath, group) under Dir:
//
//	<Dir>/<basePath>/<group>.json
//
// Both names are escaped into single path elements, so every pair gets its
// own file and none resolves outside Dir. An empty basePath is "_root".
type FileStore struct {
	Dir string
}

// Path returns the file that holds the record of (basePath, group).
func (s FileStore) Path(basePath, group string) string {
	base := escapeName(strings.Trim(basePath, "/"))
	switch {
	case base == "":
		base = "_root"
	case base[0] == '_':
		base = "%5F" + base[1:]
	}
	return filepath.Join(s.Dir, base, escapeName(group)+".json")
}

// Load returns the persisted record, or nil when none exists. A record that
// does not parse or belongs to another group yields ErrCorruptState.
func (s FileStore) Load(basePath, group string) (*ServiceMapRecord, error) {
	path := s.Path(basePath, group)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rec ServiceMapRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	if rec.GroupName != group {
		return nil, fmt.Errorf("%w: %s: record belongs to group %q", ErrCorruptState, path, rec.GroupName)
	}
	for i, m := range rec.NameMappingList {
		if m.Path == "" || m.Method == "" || m.ServiceName == "" {
			return nil, fmt.Errorf("%w: %s: nameMappingList[%d] is incomplete", ErrCorruptState, path, i)
		}
	}
	return &rec, nil
}

// Save writes rec through a temp file and rename.
func (s FileStore) Save(rec *ServiceMapRecord) error {
	path := s.Path(rec.BasePath, rec.GroupName)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// escapeName percent-encodes '%', path separators, characters Windows
// rejects and control bytes. A name made only of dots is encoded whole.
func escapeName(name string) string {
	if name != "" && strings.Trim(name, ".") == "" {
		return strings.ReplaceAll(name, ".", "%2E")
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c < 0x20, c == 0x7f, strings.IndexByte(`%/\:*?"<>|`, c) >= 0:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
