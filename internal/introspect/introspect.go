// Package introspect reads table catalogs out of live databases.
//
// Postgres and DuckDB are read through information_schema, with pg_indexes
// and duckdb_indexes() filling in secondary indexes. SQLite is read through
// sqlite_master and its pragma table functions.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// Introspector lists the tables of one database.
type Introspector struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// New creates an introspector for db. dialect is one of core.KnownTargetTypes.
// If logger is nil, a discard logger is used.
func New(db *sql.DB, dialect string, logger *slog.Logger) (*Introspector, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	switch dialect {
	case core.TargetPostgres, core.TargetDuckDB, core.TargetSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q (expected one of %s)",
			dialect, strings.Join(core.KnownTargetTypes(), ", "))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Introspector{db: db, dialect: dialect, logger: logger}, nil
}

// DefaultSchema returns the schema Tables reads when given an empty name.
func DefaultSchema(dialect string) string {
	if dialect == core.TargetPostgres {
		return "public"
	}
	return "main"
}

// Tables returns every base table in schemaName, sorted by name, with its
// columns, indexes and constraints.
func (i *Introspector) Tables(ctx context.Context, schemaName string) ([]core.Table, error) {
	if schemaName == "" {
		schemaName = DefaultSchema(i.dialect)
	}

	var (
		tables []core.Table
		err    error
	)
	if i.dialect == core.TargetSQLite {
		tables, err = i.sqliteTables(ctx, schemaName)
	} else {
		tables, err = i.informationSchemaTables(ctx, schemaName)
	}
	if err != nil {
		return nil, err
	}

	for k := range tables {
		t := &tables[k]
		sort.SliceStable(t.Indexes, func(a, b int) bool { return t.Indexes[a].Name < t.Indexes[b].Name })
		sort.SliceStable(t.Constraints, func(a, b int) bool { return t.Constraints[a].Name < t.Constraints[b].Name })
	}

	i.logger.Debug("introspected schema",
		slog.String("dialect", i.dialect),
		slog.String("schema", schemaName),
		slog.Int("tables", len(tables)))
	return tables, nil
}

// parseIndexDef extracts uniqueness and the key list from a
// CREATE [UNIQUE] INDEX statement. Only the first parenthesised group after
// USING <method> (or ON <table>) is read, so INCLUDE and WHERE clauses are
// ignored. Expression keys are kept verbatim.
func parseIndexDef(def string) (unique bool, columns []string) {
	upper := strings.ToUpper(def)
	unique = strings.Contains(upper, "UNIQUE INDEX")

	from := strings.Index(upper, " USING ")
	if from < 0 {
		from = strings.Index(upper, " ON ")
	}
	if from < 0 {
		return unique, nil
	}
	open := strings.IndexByte(def[from:], '(')
	if open < 0 {
		return unique, nil
	}
	open += from

	depth, inQuote, start := 0, false, open+1
	for i := open; i < len(def); i++ {
		switch c := def[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return unique, appendIndexKey(columns, def[start:i])
			}
		case c == ',' && depth == 1:
			columns = appendIndexKey(columns, def[start:i])
			start = i + 1
		}
	}
	// unbalanced
	return unique, nil
}

func appendIndexKey(columns []string, part string) []string {
	part = strings.TrimSpace(part)
	if unquoted := strings.Trim(part, `"`); unquoted != "" && !strings.ContainsAny(unquoted, `"( `) {
		part = unquoted
	}
	if part == "" {
		return columns
	}
	return append(columns, part)
}

func constraintKind(sqlType string) (core.ConstraintKind, bool) {
	switch strings.ToUpper(sqlType) {
	case "PRIMARY KEY":
		return core.ConstraintPrimaryKey, true
	case "UNIQUE":
		return core.ConstraintUnique, true
	case "FOREIGN KEY":
		return core.ConstraintForeignKey, true
	case "CHECK":
		return core.ConstraintCheck, true
	}
	return "", false
}
