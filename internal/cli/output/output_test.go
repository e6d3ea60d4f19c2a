package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdiff/pkg/core"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

func samplePatches() []diff.Patch {
	typ := "table(id:integer,age:integer)"
	col := diff.NewEntity("public.users.age", core.RoleColumn, "integer")
	return []diff.Patch{
		&diff.ModifyPatch{
			Name: "public.users", Role: core.RoleTable,
			NewTypeName:   &typ,
			Modifications: map[string]string{"columns": "id,age", "a": "1"},
			Deletions:     []string{"comment"},
		},
		&diff.NewPatch{Entity: col, Parent: &diff.ParentRef{Name: "public.users", Role: core.RoleTable}},
		&diff.DeletePatch{Name: "public.orders", Role: core.RoleTable},
	}
}

func TestNewRenderer_AutoModeOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeAuto)
	assert.Equal(t, ModeJSON, r.Mode())
	assert.True(t, r.IsJSON())

	r = NewRenderer(&buf, &buf, ModeText)
	assert.Equal(t, ModeText, r.Mode())
}

func TestSummarize(t *testing.T) {
	s := Summarize(samplePatches())
	assert.Equal(t, Summary{Total: 3, New: 1, Modify: 1, Delete: 1}, s)
	assert.Equal(t, "3 patches (1 new, 1 modify, 1 delete)", s.String())
	assert.Equal(t, "1 patch (0 new, 0 modify, 1 delete)", Summarize(samplePatches()[2:]).String())
	assert.Equal(t, "No changes", Summarize(nil).String())
}

func TestDetails(t *testing.T) {
	patches := samplePatches()
	assert.Equal(t, "type table(id:integer,age:integer), set a=1, set columns=id,age, unset comment", Details(patches[0]))
	assert.Equal(t, "under public.users", Details(patches[1]))
	assert.Equal(t, "", Details(patches[2]))

	root := diff.NewEntity("public.t", core.RoleTable, "table")
	root.Children = []diff.Entity{diff.NewEntity("public.t.a", core.RoleColumn, "int")}
	root.Children[0].Children = []diff.Entity{diff.NewEntity("public.t.pk", core.RoleConstraint, "primary_key")}
	assert.Equal(t, "root, 2 children", Details(&diff.NewPatch{Entity: root}))

	newName := "public.people"
	assert.Equal(t, "rename to public.people, extras [a, b]",
		Details(&diff.ModifyPatch{NewName: &newName, Extras: []string{"a", "b"}}))
}

func TestRenderer_PatchesText(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeText)

	require.NoError(t, r.Patches("dev", samplePatches()))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape codes off a terminal")
	for _, want := range []string{"Kind", "modify", "new", "delete", "public.users.age", "under public.users", "3 patches"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderer_PatchesTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeText)

	require.NoError(t, r.Patches("dev", nil))
	assert.Equal(t, "No changes\n", buf.String())
}

func TestRenderer_PatchesJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.Patches("dev", samplePatches()))

	var report struct {
		Environment string `json:"environment"`
		Patches     []struct {
			Kind  string          `json:"kind"`
			Patch json.RawMessage `json:"patch"`
		} `json:"patches"`
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "dev", report.Environment)
	require.Len(t, report.Patches, 3)
	assert.Equal(t, "modify", report.Patches[0].Kind)
	assert.Equal(t, "new", report.Patches[1].Kind)
	assert.Equal(t, "delete", report.Patches[2].Kind)
	assert.JSONEq(t, `{"name":"public.orders","role":"table"}`, string(report.Patches[2].Patch))
	assert.Equal(t, 3, report.Summary.Total)
}

func TestRenderer_PatchesJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.Patches("", nil))
	assert.JSONEq(t, `{"patches":[],"summary":{"total":0,"new":0,"modify":0,"delete":0}}`, buf.String())
}

func TestRenderer_PatchLog(t *testing.T) {
	records := []*core.PatchRecord{{
		ID: "a", Environment: "dev", Sequence: 2, Kind: diff.KindDelete,
		Name: "public.orders", Role: core.RoleTable, Payload: "{}",
		AppliedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	var text bytes.Buffer
	require.NoError(t, NewRenderer(&text, &text, ModeText).PatchLog(records))
	assert.Contains(t, text.String(), "public.orders")
	assert.Contains(t, text.String(), "2026-01-02 03:04:05")

	var empty bytes.Buffer
	require.NoError(t, NewRenderer(&empty, &empty, ModeText).PatchLog(nil))
	assert.Equal(t, "No patches recorded\n", empty.String())

	var js bytes.Buffer
	require.NoError(t, NewRenderer(&js, &js, ModeJSON).PatchLog(nil))
	assert.JSONEq(t, `[]`, js.String())
}
