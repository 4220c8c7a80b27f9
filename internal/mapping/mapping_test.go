package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappingFor(method, path, service string) NameMapping {
	p := pascal(service)
	return NameMapping{
		Path:             path,
		Method:           method,
		ServiceName:      service,
		PathParamName:    p + "Path",
		PathQueryName:    p + "Query",
		ResponseBodyName: p + "Response",
	}
}

func freshResult(mappings ...NameMapping) *GroupResult {
	return &GroupResult{
		ToolVersion: "1.2.0",
		BasePath:    "/v2",
		GroupName:   "pet",
		CreateTime:  "2026-01-02T03:04:05Z",
		Mappings:    mappings,
		DefNames:    []DefNameMapping{{Original: "Pet", Name: "Pet"}},
	}
}

func TestMerge_FirstGeneration(t *testing.T) {
	fresh := freshResult(mappingFor("get", "/pets/{id}", "getPetsById"))
	rec, changed := Merge(fresh, nil)
	assert.Empty(t, changed)
	assert.Equal(t, fresh.Mappings, rec.NameMappingList)
	assert.Equal(t, fresh.DefNames, rec.DefNameMappingList)
	assert.Equal(t, "2026-01-02T03:04:05Z", rec.CreateTime)
	assert.Equal(t, "pet", rec.GroupName)
}

func TestMerge_Idempotent(t *testing.T) {
	fresh := freshResult(
		mappingFor("get", "/pets/{id}", "getPetsById"),
		mappingFor("post", "/pets", "addPet"),
	)
	first, _ := Merge(fresh, nil)
	second, changed := Merge(fresh, first)
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"getPetsById", "addPet"}, changed)
	for _, name := range changed {
		found := false
		for _, m := range first.NameMappingList {
			found = found || m.ServiceName == name
		}
		assert.True(t, found, "changed names always come from the record: %s", name)
	}
}

func TestMerge_NameStability(t *testing.T) {
	persisted := &ServiceMapRecord{
		ToolVersion:     "1.0.0",
		BasePath:        "/v2",
		GroupName:       "pet",
		CreateTime:      "2025-06-01T00:00:00Z",
		NameMappingList: []NameMapping{mappingFor("GET", "/pet/{id}", "getPetById")},
	}
	fresh := freshResult(
		mappingFor("get", "/pet/{id}", "getPetById1"),
		mappingFor("get", "/pet/findByTags", "findPetsByTags"),
	)
	fresh.Mappings[0].ResponseBodyName = "FreshResponse"

	rec, changed := Merge(fresh, persisted)
	require.Len(t, rec.NameMappingList, 2)
	assert.Equal(t, "getPetById", rec.NameMappingList[0].ServiceName, "renames are sticky")
	assert.Equal(t, "FreshResponse", rec.NameMappingList[0].ResponseBodyName, "other fields come from the fresh mapping")
	assert.Equal(t, "findPetsByTags", rec.NameMappingList[1].ServiceName)
	assert.Equal(t, []string{"getPetById"}, changed)
	assert.Equal(t, "2025-06-01T00:00:00Z", rec.CreateTime)
	assert.Equal(t, "1.2.0", rec.ToolVersion)
}

func TestMerge_KeepsUnselectedPersistedMappings(t *testing.T) {
	persisted := &ServiceMapRecord{
		GroupName: "pet",
		NameMappingList: []NameMapping{
			mappingFor("get", "/a", "renamedA"),
			mappingFor("get", "/b", "renamedB"),
		},
	}
	rec, changed := Merge(freshResult(mappingFor("get", "/b", "getB")), persisted)
	require.Len(t, rec.NameMappingList, 2)
	assert.Equal(t, "renamedA", rec.NameMappingList[0].ServiceName)
	assert.Equal(t, "renamedB", rec.NameMappingList[1].ServiceName)
	assert.Equal(t, []string{"renamedB"}, changed)
	assert.Equal(t, "2026-01-02T03:04:05Z", rec.CreateTime, "missing create time is filled")
}

func TestMerge_NewOperationCollidingWithRename(t *testing.T) {
	persisted := &ServiceMapRecord{
		GroupName:       "pet",
		NameMappingList: []NameMapping{mappingFor("get", "/pets/{id}", "getPet")},
	}
	rec, _ := Merge(freshResult(mappingFor("get", "/pet", "getPet")), persisted)
	require.Len(t, rec.NameMappingList, 2)
	added := rec.NameMappingList[1]
	assert.Equal(t, "getPet2", added.ServiceName)
	assert.Equal(t, "GetPet2Query", added.PathQueryName)
	assert.Equal(t, "GetPet2Response", added.ResponseBodyName)
	assert.Empty(t, added.RequestBodyName)
}

func TestMerge_DefNamesFreshWins(t *testing.T) {
	persisted := &ServiceMapRecord{
		GroupName: "pet",
		DefNameMappingList: []DefNameMapping{
			{Original: "宠物", Name: "Animal"},
			{Original: "Old", Name: "Old"},
		},
	}
	fresh := freshResult()
	fresh.DefNames = []DefNameMapping{{Original: "宠物", Name: "Pet"}, {Original: "Tag", Name: "Tag"}}

	rec, _ := Merge(fresh, persisted)
	assert.Equal(t, []DefNameMapping{
		{Original: "宠物", Name: "Pet"},
		{Original: "Old", Name: "Old"},
		{Original: "Tag", Name: "Tag"},
	}, rec.DefNameMappingList)
	assert.Equal(t, "Pet", rec.DefNames()["宠物"])
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	rec, _ := Merge(freshResult(mappingFor("get", "/pets/{id}", "getPetById")), nil)
	require.NoError(t, store.Save(rec))
	assert.FileExists(t, filepath.Join(store.Dir, "v2", "pet.json"))

	loaded, err := store.Load("/v2", "pet")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
	m, ok := loaded.Find(Key{Path: "/pets/{id}", Method: "get"})
	assert.True(t, ok)
	assert.Equal(t, "getPetById", m.ServiceName)

	missing, err := store.Load("/v2", "store")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileStore_CorruptState(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{oops"},
		{name: "other group", content: `{"groupName":"store","nameMappingList":[]}`},
		{name: "incomplete mapping", content: `{"groupName":"pet","nameMappingList":[{"path":"/x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := store.Path("", "pet")
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			rec, err := store.Load("", "pet")
			assert.ErrorIs(t, err, ErrCorruptState)
			assert.Nil(t, rec)
		})
	}
}

func TestFileStore_PathIsSanitized(t *testing.T) {
	store := FileStore{Dir: "state"}
	tests := []struct {
		basePath, group string
		want            string
	}{
		{"/api/v1/", "a/b", filepath.Join("state", "api%2Fv1", "a%2Fb.json")},
		{"/api/v1/", "a_b", filepath.Join("state", "api%2Fv1", "a_b.json")},
		{"", "宠物", filepath.Join("state", "_root", "宠物.json")},
		{"/_root", "pet", filepath.Join("state", "%5Froot", "pet.json")},
		{"/..", "..", filepath.Join("state", "%2E%2E", "%2E%2E.json")},
		{"/v1.2", "100%", filepath.Join("state", "v1.2", "100%25.json")},
	}
	for _, tt := range tests {
		t.Run(tt.basePath+" "+tt.group, func(t *testing.T) {
			got := store.Path(tt.basePath, tt.group)
			assert.Equal(t, tt.want, got)
			rel, err := filepath.Rel("state", got)
			require.NoError(t, err)
			assert.False(t, strings.HasPrefix(rel, ".."), "path escapes the store: %s", got)
		})
	}
}

func TestFileStore_DistinctGroupsKeepTheirRecords(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	for _, group := range []string{"a/b", "a_b"} {
		require.NoError(t, store.Save(&ServiceMapRecord{
			BasePath: "/api", GroupName: group,
			NameMappingList: []NameMapping{{Path: "/x", Method: "get", ServiceName: "getX"}},
		}))
	}
	for _, group := range []string{"a/b", "a_b"} {
		rec, err := store.Load("/api", group)
		require.NoError(t, err)
		assert.Equal(t, group, rec.GroupName)
	}
}

func TestNewerTool(t *testing.T) {
	assert.True(t, NewerTool(&ServiceMapRecord{ToolVersion: "2.0.0"}, "1.9.3"))
	assert.False(t, NewerTool(&ServiceMapRecord{ToolVersion: "1.0.0"}, "v1.0.0"))
	assert.False(t, NewerTool(&ServiceMapRecord{ToolVersion: "2.0.0"}, "dev"))
	assert.False(t, NewerTool(nil, "1.0.0"))
}
