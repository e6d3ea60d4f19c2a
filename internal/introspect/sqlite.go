package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// SQLite constraints are unnamed, so names follow the Postgres convention:
// <table>_pkey, <table>_<cols>_key and <table>_<cols>_fkey.

func (i *Introspector) sqliteTables(ctx context.Context, schemaName string) ([]core.Table, error) {
	//nolint:gosec // schema names cannot be bound; quoteIdent escapes them
	names, err := queryStrings(ctx, i.db, fmt.Sprintf(`
		SELECT name FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, quoteIdent(schemaName)))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]core.Table, 0, len(names))
	for _, name := range names {
		t := core.Table{Schema: schemaName, Name: name}
		if err := i.sqliteColumns(ctx, &t); err != nil {
			return nil, err
		}
		if err := i.sqliteIndexes(ctx, &t); err != nil {
			return nil, err
		}
		if err := i.sqliteForeignKeys(ctx, &t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (i *Introspector) sqliteColumns(ctx context.Context, t *core.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT cid, name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?, ?)
		ORDER BY cid
	`, t.Name, t.Schema)
	if err != nil {
		return fmt.Errorf("failed to query columns of %s: %w", t.Name, err)
	}
	defer func() { _ = rows.Close() }()

	type pkColumn struct {
		seq  int
		name string
	}
	var pk []pkColumn
	for rows.Next() {
		var (
			cid, notNull, pkSeq int
			col                 core.Column
			def                 sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &def, &pkSeq); err != nil {
			return fmt.Errorf("failed to scan column of %s: %w", t.Name, err)
		}
		col.Position = cid + 1
		col.Type = strings.ToLower(col.Type)
		col.Nullable = notNull == 0 && pkSeq == 0
		if def.Valid {
			col.Default = &def.String
		}
		if pkSeq > 0 {
			pk = append(pk, pkColumn{seq: pkSeq, name: col.Name})
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating columns of %s: %w", t.Name, err)
	}

	if len(pk) > 0 {
		sort.Slice(pk, func(a, b int) bool { return pk[a].seq < pk[b].seq })
		cols := make([]string, len(pk))
		for k, c := range pk {
			cols[k] = c.name
		}
		t.Constraints = append(t.Constraints, core.Constraint{
			Name:    t.Name + "_pkey",
			Kind:    core.ConstraintPrimaryKey,
			Columns: cols,
		})
	}
	return nil
}

func (i *Introspector) sqliteIndexes(ctx context.Context, t *core.Table) error {
	type indexRow struct {
		name   string
		unique bool
		origin string
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT name, "unique", origin FROM pragma_index_list(?, ?)
	`, t.Name, t.Schema)
	if err != nil {
		return fmt.Errorf("failed to query indexes of %s: %w", t.Name, err)
	}
	var list []indexRow
	for rows.Next() {
		var r indexRow
		var unique int
		if err := rows.Scan(&r.name, &unique, &r.origin); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan index of %s: %w", t.Name, err)
		}
		r.unique = unique == 1
		list = append(list, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating indexes of %s: %w", t.Name, err)
	}

	for _, r := range list {
		if r.origin == "pk" {
			continue
		}
		cols, err := queryStrings(ctx, i.db,
			`SELECT name FROM pragma_index_info(?, ?) ORDER BY seqno`, r.name, t.Schema)
		if err != nil {
			return fmt.Errorf("failed to query index %s: %w", r.name, err)
		}
		if r.origin == "u" {
			t.Constraints = append(t.Constraints, core.Constraint{
				Name:    t.Name + "_" + strings.Join(cols, "_") + "_key",
				Kind:    core.ConstraintUnique,
				Columns: cols,
			})
			continue
		}
		t.Indexes = append(t.Indexes, core.Index{Name: r.name, Columns: cols, Unique: r.unique})
	}
	return nil
}

func (i *Introspector) sqliteForeignKeys(ctx context.Context, t *core.Table) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT id, "table", "from", "to"
		FROM pragma_foreign_key_list(?, ?)
		ORDER BY id, seq
	`, t.Name, t.Schema)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys of %s: %w", t.Name, err)
	}
	defer func() { _ = rows.Close() }()

	type fk struct {
		table string
		from  []string
		to    []string
	}
	var order []int
	byID := make(map[int]*fk)
	for rows.Next() {
		var (
			id         int
			table, src string
			dst        sql.NullString
		)
		if err := rows.Scan(&id, &table, &src, &dst); err != nil {
			return fmt.Errorf("failed to scan foreign key of %s: %w", t.Name, err)
		}
		k, ok := byID[id]
		if !ok {
			k = &fk{table: table}
			byID[id] = k
			order = append(order, id)
		}
		k.from = append(k.from, src)
		if dst.Valid {
			k.to = append(k.to, dst.String)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating foreign keys of %s: %w", t.Name, err)
	}

	for _, id := range order {
		k := byID[id]
		ref := t.Schema + "." + k.table
		if len(k.to) > 0 {
			ref += "(" + strings.Join(k.to, ",") + ")"
		}
		t.Constraints = append(t.Constraints, core.Constraint{
			Name:       t.Name + "_" + strings.Join(k.from, "_") + "_fkey",
			Kind:       core.ConstraintForeignKey,
			Columns:    k.from,
			References: ref,
		})
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
