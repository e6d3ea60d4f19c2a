package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// placeholder returns the n-th bind parameter for the dialect.
func (i *Introspector) placeholder(n int) string {
	if i.dialect == core.TargetPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (i *Introspector) informationSchemaTables(ctx context.Context, schemaName string) ([]core.Table, error) {
	p := i.placeholder(1)

	//nolint:gosec // placeholder is $1 or ?
	names, err := queryStrings(ctx, i.db, fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p), schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]core.Table, len(names))
	byName := make(map[string]*core.Table, len(names))
	for k, name := range names {
		tables[k] = core.Table{Schema: schemaName, Name: name}
		byName[name] = &tables[k]
	}

	if err := i.loadColumns(ctx, schemaName, byName); err != nil {
		return nil, err
	}
	refs, err := i.loadReferences(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	if err := i.loadConstraints(ctx, schemaName, byName, refs); err != nil {
		return nil, err
	}
	if err := i.loadIndexes(ctx, schemaName, byName); err != nil {
		return nil, err
	}
	return tables, nil
}

func (i *Introspector) loadColumns(ctx context.Context, schemaName string, byName map[string]*core.Table) error {
	//nolint:gosec // placeholder is $1 or ?
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT table_name, column_name, data_type, is_nullable, ordinal_position, column_default
		FROM information_schema.columns
		WHERE table_schema = %s
		ORDER BY table_name, ordinal_position
	`, i.placeholder(1)), schemaName)
	if err != nil {
		return fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			table, nullable string
			col             core.Column
			def             sql.NullString
		)
		if err := rows.Scan(&table, &col.Name, &col.Type, &nullable, &col.Position, &def); err != nil {
			return fmt.Errorf("failed to scan column metadata: %w", err)
		}
		t, ok := byName[table]
		if !ok {
			continue // views and other non-base tables
		}
		col.Nullable = nullable == "YES"
		if def.Valid {
			col.Default = &def.String
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating column metadata: %w", err)
	}
	return nil
}

// loadReferences maps foreign key constraint names to "schema.table(cols)".
// DuckDB does not expose referenced columns, so it yields an empty map.
func (i *Introspector) loadReferences(ctx context.Context, schemaName string) (map[string]string, error) {
	refs := make(map[string]string)
	if i.dialect != core.TargetPostgres {
		return refs, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT rc.constraint_name, ccu.table_schema, ccu.table_name, ccu.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_schema = rc.constraint_schema
			AND ccu.constraint_name = rc.constraint_name
		WHERE rc.constraint_schema = $1
		ORDER BY rc.constraint_name, ccu.column_name
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	targets := make(map[string]string)
	columns := make(map[string][]string)
	var order []string
	for rows.Next() {
		var name, refSchema, refTable, refColumn string
		if err := rows.Scan(&name, &refSchema, &refTable, &refColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if _, seen := targets[name]; !seen {
			order = append(order, name)
			targets[name] = refSchema + "." + refTable
		}
		columns[name] = append(columns[name], refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	for _, name := range order {
		refs[name] = targets[name] + "(" + strings.Join(columns[name], ",") + ")"
	}
	return refs, nil
}

// loadConstraints reads key and check constraints. Postgres check
// constraints have no key_column_usage rows, so their columns come from
// constraint_column_usage; the implicit NOT NULL checks are skipped. DuckDB
// exposes no column usage for checks and only its key constraints are read.
func (i *Introspector) loadConstraints(ctx context.Context, schemaName string, byName map[string]*core.Table, refs map[string]string) error {
	query := `
		SELECT tc.table_name, tc.constraint_name, tc.constraint_type,
			COALESCE(kcu.column_name, ccu.column_name)
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		LEFT JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_type = 'CHECK'
			AND ccu.constraint_schema = tc.constraint_schema
			AND ccu.constraint_name = tc.constraint_name
		WHERE tc.table_schema = $1
			AND tc.constraint_name NOT LIKE '%_not_null'
		ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position, ccu.column_name
	`
	if i.dialect == core.TargetDuckDB {
		query = `
		SELECT tc.table_name, tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = ?
		ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position
	`
	}

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return fmt.Errorf("failed to query constraints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// index into each table's Constraints, keyed by table and constraint name
	seen := make(map[[2]string]int)
	for rows.Next() {
		var table, name, kindName string
		var column sql.NullString
		if err := rows.Scan(&table, &name, &kindName, &column); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}
		t, ok := byName[table]
		if !ok {
			continue
		}
		kind, ok := constraintKind(kindName)
		if !ok {
			continue
		}
		key := [2]string{table, name}
		idx, ok := seen[key]
		if !ok {
			idx = len(t.Constraints)
			seen[key] = idx
			t.Constraints = append(t.Constraints, core.Constraint{
				Name:       name,
				Kind:       kind,
				References: refs[name],
			})
		}
		if column.Valid {
			t.Constraints[idx].Columns = append(t.Constraints[idx].Columns, column.String)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating constraints: %w", err)
	}
	return nil
}

// loadIndexes adds secondary indexes. Indexes that back a constraint of the
// same name are skipped; the constraint already describes them.
func (i *Introspector) loadIndexes(ctx context.Context, schemaName string, byName map[string]*core.Table) error {
	query := `
		SELECT tablename, indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1
		ORDER BY tablename, indexname
	`
	if i.dialect == core.TargetDuckDB {
		query = `
		SELECT table_name, index_name, sql
		FROM duckdb_indexes()
		WHERE schema_name = ?
		ORDER BY table_name, index_name
	`
	}

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var table, name string
		var def sql.NullString
		if err := rows.Scan(&table, &name, &def); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		t, ok := byName[table]
		if !ok || hasConstraint(t, name) {
			continue
		}
		unique, columns := parseIndexDef(def.String)
		t.Indexes = append(t.Indexes, core.Index{Name: name, Columns: columns, Unique: unique})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating indexes: %w", err)
	}
	return nil
}

func hasConstraint(t *core.Table, name string) bool {
	for _, c := range t.Constraints {
		if c.Name == name {
			return true
		}
	}
	return false
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
