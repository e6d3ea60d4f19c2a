package output

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapdiff/pkg/core"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// Summary counts patches by kind.
type Summary struct {
	Total  int `json:"total"`
	New    int `json:"new"`
	Modify int `json:"modify"`
	Delete int `json:"delete"`
}

// Summarize counts patches by kind.
func Summarize(patches []diff.Patch) Summary {
	s := Summary{Total: len(patches)}
	for _, p := range patches {
		switch p.Kind() {
		case diff.KindNew:
			s.New++
		case diff.KindModify:
			s.Modify++
		case diff.KindDelete:
			s.Delete++
		}
	}
	return s
}

func (s Summary) String() string {
	if s.Total == 0 {
		return "No changes"
	}
	noun := "patches"
	if s.Total == 1 {
		noun = "patch"
	}
	return fmt.Sprintf("%d %s (%d new, %d modify, %d delete)", s.Total, noun, s.New, s.Modify, s.Delete)
}

// PatchEnvelope is the JSON form of one patch.
type PatchEnvelope struct {
	Kind  diff.PatchKind `json:"kind"`
	Patch diff.Patch     `json:"patch"`
}

// PatchReport is the JSON form of a diff.
type PatchReport struct {
	Environment string          `json:"environment,omitempty"`
	Patches     []PatchEnvelope `json:"patches"`
	Summary     Summary         `json:"summary"`
}

// Patches writes patches as a table or JSON.
func (r *Renderer) Patches(env string, patches []diff.Patch) error {
	if r.IsJSON() {
		report := PatchReport{
			Environment: env,
			Patches:     make([]PatchEnvelope, len(patches)),
			Summary:     Summarize(patches),
		}
		for i, p := range patches {
			report.Patches[i] = PatchEnvelope{Kind: p.Kind(), Patch: p}
		}
		return r.JSON(report)
	}

	if len(patches) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Kind", "Role", "Name", "Details"})
		for i, p := range patches {
			name, role := p.Subject()
			t.AppendRow(table.Row{i + 1, r.kindLabel(p.Kind()), role, name, Details(p)})
		}
		t.Render()
	}
	r.Println(r.styles.Muted.Render(Summarize(patches).String()))
	return nil
}

// PatchLog writes recorded patches, newest first.
func (r *Renderer) PatchLog(records []*core.PatchRecord) error {
	if r.IsJSON() {
		if records == nil {
			records = []*core.PatchRecord{}
		}
		return r.JSON(records)
	}

	if len(records) == 0 {
		r.Println(r.styles.Muted.Render("No patches recorded"))
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Seq", "Kind", "Role", "Name", "Applied"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Sequence, r.kindLabel(rec.Kind), rec.Role, rec.Name,
			rec.AppliedAt.Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}

func (r *Renderer) kindLabel(k diff.PatchKind) string {
	var style lipgloss.Style
	switch k {
	case diff.KindNew:
		style = r.styles.New
	case diff.KindModify:
		style = r.styles.Modify
	case diff.KindDelete:
		style = r.styles.Delete
	default:
		return string(k)
	}
	return style.Render(string(k))
}

// Details describes what a patch changes in one line.
func Details(p diff.Patch) string {
	switch p := p.(type) {
	case *diff.NewPatch:
		var parts []string
		if p.Parent != nil {
			parts = append(parts, "under "+p.Parent.Name)
		} else {
			parts = append(parts, "root")
		}
		if n := countDescendants(p.Entity.Children); n > 0 {
			parts = append(parts, fmt.Sprintf("%d children", n))
		}
		return strings.Join(parts, ", ")
	case *diff.ModifyPatch:
		var parts []string
		if p.NewName != nil {
			parts = append(parts, "rename to "+*p.NewName)
		}
		if p.NewTypeName != nil {
			parts = append(parts, "type "+*p.NewTypeName)
		}
		for _, k := range slices.Sorted(maps.Keys(p.Modifications)) {
			parts = append(parts, fmt.Sprintf("set %s=%s", k, p.Modifications[k]))
		}
		for _, k := range p.Deletions {
			parts = append(parts, "unset "+k)
		}
		if len(p.Extras) > 0 {
			parts = append(parts, "extras ["+strings.Join(p.Extras, ", ")+"]")
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func countDescendants(children []diff.Entity) int {
	n := 0
	for i := range children {
		n += 1 + countDescendants(children[i].Children)
	}
	return n
}
