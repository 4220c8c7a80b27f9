// Package mapping keeps generated names stable across regenerations. Each
// group's names are persisted as a ServiceMapRecord and reconciled with
// every fresh generation by Merge.
package mapping

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// NameMapping records the names generated for one operation. The identity
// of a mapping is its (path, method) pair.
type NameMapping struct {
	Path             string `json:"path"`
	Method           string `json:"method"`
	ServiceName      string `json:"serviceName"`
	PathParamName    string `json:"pathParamName,omitempty"`
	PathQueryName    string `json:"pathQueryName,omitempty"`
	RequestBodyName  string `json:"requestBodyName,omitempty"`
	ResponseBodyName string `json:"responseBodyName,omitempty"`
	FormDataName     string `json:"formDataName,omitempty"`
}

// Key is the identity of a mapping within a group.
type Key struct {
	Path   string
	Method string
}

func (m NameMapping) Key() Key {
	return Key{Path: m.Path, Method: strings.ToLower(m.Method)}
}

// TypeNames lists the non-empty parameter and response type names of m.
func (m NameMapping) TypeNames() []string {
	var out []string
	for _, name := range []string{m.PathParamName, m.PathQueryName, m.RequestBodyName, m.FormDataName, m.ResponseBodyName} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// DefNameMapping maps a source definition name to its emitted name.
type DefNameMapping struct {
	Original string `json:"original"`
	Name     string `json:"name"`
}

// ServiceMapRecord is the persisted name state of one (basePath, group).
type ServiceMapRecord struct {
	ToolVersion        string           `json:"toolVersion"`
	BasePath           string           `json:"basePath"`
	GroupName          string           `json:"groupName"`
	CreateTime         string           `json:"createTime"`
	NameMappingList    []NameMapping    `json:"nameMappingList"`
	DefNameMappingList []DefNameMapping `json:"defNameMappingList"`
}

// Find returns the mapping with key k.
func (r *ServiceMapRecord) Find(k Key) (NameMapping, bool) {
	if r == nil {
		return NameMapping{}, false
	}
	for _, m := range r.NameMappingList {
		if m.Key() == k {
			return m, true
		}
	}
	return NameMapping{}, false
}

// DefNames returns the definition mappings as a map.
func (r *ServiceMapRecord) DefNames() map[string]string {
	out := map[string]string{}
	if r == nil {
		return out
	}
	for _, d := range r.DefNameMappingList {
		out[d.Original] = d.Name
	}
	return out
}

// GroupResult is the output of one fresh generation for a group, before
// reconciliation with persisted names.
type GroupResult struct {
	ToolVersion string
	BasePath    string
	GroupName   string
	// CreateTime is used only when no record exists yet.
	CreateTime string
	Mappings   []NameMapping
	DefNames   []DefNameMapping
}

// NewerTool reports whether rec was written by a newer tool than current.
// Unparsable versions (such as development builds) never compare as newer.
func NewerTool(rec *ServiceMapRecord, current string) bool {
	if rec == nil {
		return false
	}
	recorded, err := goversion.NewVersion(rec.ToolVersion)
	if err != nil {
		return false
	}
	running, err := goversion.NewVersion(current)
	if err != nil {
		return false
	}
	return recorded.GreaterThan(running)
}
