package mapping

import (
	"fmt"
	"slices"
	"strings"
)

// Merge reconciles a fresh generation with the persisted record of the
// same group.
//
// Without a persisted record the fresh result becomes the record and no
// names are reported as changed. Otherwise every fresh mapping that matches
// a persisted one by (path, method) keeps the persisted serviceName, takes
// every other field from the fresh mapping, and reports that serviceName
// as changed so its previous output is rewritten in place. Fresh mappings
// without a match are appended. Persisted mappings absent from the fresh
// result are kept, so a partial selection never forgets earlier renames.
//
// Definition names merge additively with fresh entries winning on
// collision, while service names stay sticky.
func Merge(fresh *GroupResult, persisted *ServiceMapRecord) (*ServiceMapRecord, []string) {
	if persisted == nil {
		return &ServiceMapRecord{
			ToolVersion:        fresh.ToolVersion,
			BasePath:           fresh.BasePath,
			GroupName:          fresh.GroupName,
			CreateTime:         fresh.CreateTime,
			NameMappingList:    slices.Clone(fresh.Mappings),
			DefNameMappingList: slices.Clone(fresh.DefNames),
		}, nil
	}

	out := &ServiceMapRecord{
		ToolVersion:     fresh.ToolVersion,
		BasePath:        fresh.BasePath,
		GroupName:       fresh.GroupName,
		CreateTime:      persisted.CreateTime,
		NameMappingList: slices.Clone(persisted.NameMappingList),
	}
	if out.CreateTime == "" {
		out.CreateTime = fresh.CreateTime
	}

	index := make(map[Key]int, len(out.NameMappingList))
	used := map[string]bool{}
	for i, m := range out.NameMappingList {
		index[m.Key()] = i
		used[m.ServiceName] = true
	}

	var changed []string
	for _, m := range fresh.Mappings {
		if i, ok := index[m.Key()]; ok {
			kept := out.NameMappingList[i].ServiceName
			m.ServiceName = kept
			out.NameMappingList[i] = m
			if !slices.Contains(changed, kept) {
				changed = append(changed, kept)
			}
			continue
		}
		if used[m.ServiceName] {
			m = m.Renamed(uniqueName(m.ServiceName, used))
		}
		used[m.ServiceName] = true
		index[m.Key()] = len(out.NameMappingList)
		out.NameMappingList = append(out.NameMappingList, m)
	}

	out.DefNameMappingList = mergeDefNames(persisted.DefNameMappingList, fresh.DefNames)
	return out, changed
}

func mergeDefNames(base, fresh []DefNameMapping) []DefNameMapping {
	out := slices.Clone(base)
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[d.Original] = i
	}
	for _, d := range fresh {
		if i, ok := index[d.Original]; ok {
			out[i] = d
			continue
		}
		index[d.Original] = len(out)
		out = append(out, d)
	}
	return out
}

func uniqueName(name string, used map[string]bool) string {
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !used[candidate] {
			return candidate
		}
	}
}

// Renamed returns m under a new service name. Type names derived from the
// old service name are re-derived from the new one.
func (m NameMapping) Renamed(service string) NameMapping {
	oldPrefix, newPrefix := pascal(m.ServiceName), pascal(service)
	for _, f := range []*string{&m.PathParamName, &m.PathQueryName, &m.RequestBodyName, &m.ResponseBodyName, &m.FormDataName} {
		if rest, ok := strings.CutPrefix(*f, oldPrefix); ok && *f != "" {
			*f = newPrefix + rest
		}
	}
	m.ServiceName = service
	return m
}

func pascal(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
