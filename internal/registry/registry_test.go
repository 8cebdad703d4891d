package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinQIInspections(t *testing.T) {
	reg := Builtin()

	td, ok := reg.Table("qi", "qi-inspections")
	require.True(t, ok)
	assert.Equal(t, []string{"project", "inspection_type", "scheduled_date", "inspection_result", "is_completed"}, td.Columns)

	// lookup нечувствителен к регистру/алиасам
	td2, ok := reg.Table("Quality Inspector", "/qi-inspections/")
	require.True(t, ok)
	assert.Equal(t, td.Columns, td2.Columns)
}

func TestBuiltinIsLintClean(t *testing.T) {
	assert.Empty(t, Builtin().Lint())
}

func TestTablesUnknownRoleIsEmpty(t *testing.T) {
	assert.Empty(t, Builtin().Tables("nobody"))
}

func TestTablesReturnsCopy(t *testing.T) {
	reg := Builtin()
	tables := reg.Tables("qi")
	tables[0].Columns[0] = "mutated"

	again := reg.Tables("qi")
	assert.Equal(t, "project", again[0].Columns[0])
}

func TestLintDuplicateEndpoint(t *testing.T) {
	reg := New(RoleSpec{
		Role: "clerk",
		Tables: []TableDescriptor{
			{Endpoint: "invoices", Label: "A", Columns: []string{"amount"}},
			{Endpoint: "invoices", Label: "B", Columns: []string{"amount"}},
			{Endpoint: "docs", Label: "C"},
			{Endpoint: "x", Label: "D", Columns: []string{"a"}, IDField: "weird_key"},
		},
	})

	codes := map[string]int{}
	for _, is := range reg.Lint() {
		codes[is.Code]++
	}
	assert.Equal(t, 1, codes[IssueEndpointDuplicate])
	assert.Equal(t, 1, codes[IssueColumnsEmpty])
	assert.Equal(t, 1, codes[IssueIDFieldUnknown])
}

func TestRouteFor(t *testing.T) {
	cases := map[string]string{
		"admin":             "/admin",
		"Team Leader":       "/team-leader",
		"QI":                "/quality-inspector",
		"quality_inspector": "/quality-inspector",
		"vendor":            "/vendor",
		"ghost":             "/",
	}
	reg := Builtin()
	for role, want := range cases {
		assert.Equal(t, want, reg.RouteFor(role), role)
	}
}

func TestLoadDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	yml := `role: QI
route: /qi
tables:
  - endpoint: /qi-inspections/
    label: Inspections
    id_field: inspection_id
    columns: [project, inspection_result]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qi.yaml"), []byte(yml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auditor.yml"), []byte("tables:\n  - endpoint: audits\n    label: Audits\n    columns: [title]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := Load(dir)
	require.NoError(t, err)

	td, ok := reg.Table("qi", "qi-inspections")
	require.True(t, ok)
	assert.Equal(t, []string{"project", "inspection_result"}, td.Columns)
	assert.Equal(t, "inspection_id", td.IDField)
	assert.Equal(t, "/qi", reg.RouteFor("qi"))

	_, ok = reg.Table("auditor", "audits")
	assert.True(t, ok)

	// остальные роли на месте
	assert.NotEmpty(t, reg.Tables("admin"))
}

func TestLoadDirDuplicateRole(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("role: qi\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("role: QI\n"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestLoadMissingDirFallsBackToBuiltin(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, Builtin().Roles(), reg.Roles())
}
