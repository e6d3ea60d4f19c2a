// Package schema turns catalog tables into diff snapshots.
//
// Every table becomes a root entity named by its qualified name. Its children
// are its columns, then its indexes, then any constraint spanning more than
// one column. A constraint on exactly one column is nested under that column
// so that dropping the column drops the constraint with it.
package schema

import (
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdiff/pkg/core"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// Attribute keys set on snapshot entities.
const (
	AttrSchema     = "schema"
	AttrColumns    = "columns"
	AttrNullable   = "nullable"
	AttrPosition   = "position"
	AttrDefault    = "default"
	AttrReferences = "references"
)

// Forest converts tables into a snapshot forest sorted by qualified name.
func Forest(tables []core.Table) []diff.Entity {
	sorted := make([]core.Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QualifiedName() < sorted[j].QualifiedName()
	})

	forest := make([]diff.Entity, 0, len(sorted))
	for i := range sorted {
		forest = append(forest, TableEntity(sorted[i]))
	}
	return forest
}

// TableEntity converts one table and everything it owns.
func TableEntity(t core.Table) diff.Entity {
	qualified := t.QualifiedName()

	columns := make([]core.Column, len(t.Columns))
	copy(columns, t.Columns)
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].Position < columns[j].Position })

	names := make([]string, len(columns))
	signature := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		signature[i] = c.Name + ":" + c.Type
	}

	ent := diff.NewEntity(qualified, core.RoleTable, "table("+strings.Join(signature, ",")+")")
	ent.Attrs[AttrSchema] = t.Schema
	ent.Attrs[AttrColumns] = strings.Join(names, ",")

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}

	// Single-column constraints hang under their column; the rest, including
	// any naming a column the table does not have, stay on the table.
	byColumn := make(map[string][]diff.Entity)
	var tableLevel []diff.Entity
	for _, c := range t.Constraints {
		ce := constraintEntity(qualified, c)
		if len(c.Columns) == 1 && known[c.Columns[0]] {
			byColumn[c.Columns[0]] = append(byColumn[c.Columns[0]], ce)
			continue
		}
		tableLevel = append(tableLevel, ce)
	}

	for _, c := range columns {
		col := columnEntity(qualified, c)
		col.Children = byColumn[c.Name]
		ent.Children = append(ent.Children, col)
	}
	for _, idx := range t.Indexes {
		ent.Children = append(ent.Children, indexEntity(qualified, idx))
	}
	ent.Children = append(ent.Children, tableLevel...)
	return ent
}

func columnEntity(table string, c core.Column) diff.Entity {
	ent := diff.NewEntity(table+"."+c.Name, core.RoleColumn, c.Type)
	ent.Attrs[AttrNullable] = strconv.FormatBool(c.Nullable)
	ent.Attrs[AttrPosition] = strconv.Itoa(c.Position)
	if c.Default != nil {
		ent.Attrs[AttrDefault] = *c.Default
	}
	return ent
}

func indexEntity(table string, idx core.Index) diff.Entity {
	typeName := "index"
	if idx.Unique {
		typeName = "unique_index"
	}
	ent := diff.NewEntity(table+"."+idx.Name, core.RoleIndex, typeName)
	ent.Attrs[AttrColumns] = strings.Join(idx.Columns, ",")
	ent.Extras = append([]string(nil), idx.Columns...)
	return ent
}

func constraintEntity(table string, c core.Constraint) diff.Entity {
	ent := diff.NewEntity(table+"."+c.Name, core.RoleConstraint, string(c.Kind))
	ent.Attrs[AttrColumns] = strings.Join(c.Columns, ",")
	if c.References != "" {
		ent.Attrs[AttrReferences] = c.References
	}
	return ent
}
