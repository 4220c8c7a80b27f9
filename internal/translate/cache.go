package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

type cacheKey struct {
	engine string
	text   string
}

// Cache stores translations keyed by (engine, source text). Entries are
// only ever added.
type Cache struct {
	path    string
	entries map[cacheKey]string
}

// cacheRecord is the persisted form: one record per engine.
type cacheRecord struct {
	Engine      string            `json:"engine"`
	Translation map[string]string `json:"translation"`
}

// NewCache returns an empty cache saved to path. An empty path keeps the
// cache in memory.
func NewCache(path string) *Cache {
	return &Cache{path: path, entries: make(map[cacheKey]string)}
}

// LoadCache reads the cache stored at path. A missing file yields an empty
// cache. A malformed file yields an empty cache and an error the caller may
// report before continuing.
func LoadCache(path string) (*Cache, error) {
	c := NewCache(path)
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read translation cache: %w", err)
	}
	var records []cacheRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return c, fmt.Errorf("parse translation cache %s: %w", path, err)
	}
	for _, r := range records {
		for text, out := range r.Translation {
			c.entries[cacheKey{r.Engine, text}] = out
		}
	}
	return c, nil
}

func (c *Cache) Get(engine, text string) (string, bool) {
	v, ok := c.entries[cacheKey{engine, text}]
	return v, ok
}

func (c *Cache) Put(engine, text, translated string) {
	c.entries[cacheKey{engine, text}] = translated
}

func (c *Cache) Len() int { return len(c.entries) }

// Detach keeps c in memory from now on: Save no longer writes.
func (c *Cache) Detach() { c.path = "" }

// Save writes the cache to its path through a temp file and rename.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	byEngine := map[string]map[string]string{}
	for k, v := range c.entries {
		if byEngine[k.engine] == nil {
			byEngine[k.engine] = map[string]string{}
		}
		byEngine[k.engine][k.text] = v
	}
	records := make([]cacheRecord, 0, len(byEngine))
	for _, engine := range slices.Sorted(maps.Keys(byEngine)) {
		records = append(records, cacheRecord{Engine: engine, Translation: byEngine[engine]})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
