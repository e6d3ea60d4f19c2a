package introspect

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/leapdiff/internal/schema"
	"github.com/leapstack-labs/leapdiff/internal/testutil"
	"github.com/leapstack-labs/leapdiff/pkg/core"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tests := []struct {
		name    string
		db      *sql.DB
		dialect string
		wantErr string
	}{
		{name: "postgres", db: db, dialect: "postgres"},
		{name: "duckdb", db: db, dialect: "duckdb"},
		{name: "sqlite", db: db, dialect: "sqlite"},
		{name: "unknown dialect", db: db, dialect: "oracle", wantErr: `unsupported dialect "oracle"`},
		{name: "nil db", dialect: "postgres", wantErr: "database connection not established"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := New(tt.db, tt.dialect, nil)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, in)
		})
	}
}

func TestParseIndexDef(t *testing.T) {
	tests := []struct {
		def     string
		unique  bool
		columns []string
	}{
		{"CREATE INDEX users_name_idx ON public.users USING btree (name)", false, []string{"name"}},
		{"CREATE UNIQUE INDEX a_b ON public.a USING btree (b, \"Order\")", true, []string{"b", "Order"}},
		{"CREATE INDEX idx ON t(x,y);", false, []string{"x", "y"}},
		{"CREATE INDEX i ON public.t USING btree (a, b) WHERE (deleted_at IS NULL)", false, []string{"a", "b"}},
		{"CREATE UNIQUE INDEX j ON public.t USING btree (lower(email))", true, []string{"lower(email)"}},
		{"CREATE INDEX k ON public.t USING btree (a) INCLUDE (b, c)", false, []string{"a"}},
		{"CREATE INDEX m ON public.t USING btree (coalesce(a, b), c DESC)", false, []string{"coalesce(a, b)", "c DESC"}},
		{"CREATE INDEX broken ON t (a", false, nil},
		{"", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			unique, columns := parseIndexDef(tt.def)
			assert.Equal(t, tt.unique, unique)
			assert.Equal(t, tt.columns, columns)
		})
	}
}

func expectPostgresCatalog(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "data_type", "is_nullable", "ordinal_position", "column_default",
		}).
			AddRow("orders", "id", "integer", "NO", 1, nil).
			AddRow("orders", "user_id", "integer", "NO", 2, nil).
			AddRow("orders", "total", "numeric", "NO", 3, nil).
			AddRow("user_view", "id", "integer", "YES", 1, nil).
			AddRow("users", "id", "integer", "NO", 1, nil).
			AddRow("users", "name", "text", "YES", 2, nil).
			AddRow("users", "email", "text", "NO", 3, nil))

	mock.ExpectQuery(`FROM information_schema.referential_constraints`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "table_schema", "table_name", "column_name"}).
			AddRow("orders_user_id_fkey", "public", "users", "id"))

	mock.ExpectQuery(`FROM information_schema.table_constraints`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_name", "constraint_type", "column_name"}).
			AddRow("orders", "orders_id_user_key", "UNIQUE", "id").
			AddRow("orders", "orders_id_user_key", "UNIQUE", "user_id").
			AddRow("orders", "orders_pkey", "PRIMARY KEY", "id").
			AddRow("orders", "orders_user_id_fkey", "FOREIGN KEY", "user_id").
			AddRow("users", "users_email_key", "UNIQUE", "email").
			AddRow("users", "users_pkey", "PRIMARY KEY", "id"))

	mock.ExpectQuery(`FROM pg_indexes`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"tablename", "indexname", "indexdef"}).
			AddRow("orders", "orders_id_user_key", "CREATE UNIQUE INDEX orders_id_user_key ON public.orders USING btree (id, user_id)").
			AddRow("orders", "orders_pkey", "CREATE UNIQUE INDEX orders_pkey ON public.orders USING btree (id)").
			AddRow("users", "users_email_key", "CREATE UNIQUE INDEX users_email_key ON public.users USING btree (email)").
			AddRow("users", "users_name_idx", "CREATE INDEX users_name_idx ON public.users USING btree (name)").
			AddRow("users", "users_pkey", "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"))
}

func TestTables_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectPostgresCatalog(mock)

	in, err := New(db, core.TargetPostgres, testutil.NewTestLogger(t))
	require.NoError(t, err)

	tables, err := in.Tables(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, tables, 2)
	assert.Equal(t,
		schema.Forest([]core.Table{testutil.UsersTable(), testutil.OrdersTable()}),
		schema.Forest(tables))

	users := tables[1]
	assert.Equal(t, []core.Index{{Name: "users_name_idx", Columns: []string{"name"}}}, users.Indexes)
	assert.Equal(t, "users_email_key", users.Constraints[0].Name)
	assert.Equal(t, "public.users(id)", tables[0].Constraints[2].References)
}

func TestTables_PostgresCheckConstraints(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("t"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "data_type", "is_nullable", "ordinal_position", "column_default",
		}).
			AddRow("t", "a", "integer", "NO", 1, nil).
			AddRow("t", "b", "integer", "YES", 2, nil))
	mock.ExpectQuery(`FROM information_schema.referential_constraints`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "table_schema", "table_name", "column_name"}))
	mock.ExpectQuery(`LEFT JOIN information_schema.constraint_column_usage`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_name", "constraint_type", "column_name"}).
			AddRow("t", "t_a_check", "CHECK", "a").
			AddRow("t", "t_a_b_check", "CHECK", "a").
			AddRow("t", "t_a_b_check", "CHECK", "b").
			AddRow("t", "t_const_check", "CHECK", nil))
	mock.ExpectQuery(`FROM pg_indexes`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"tablename", "indexname", "indexdef"}))

	in, err := New(db, core.TargetPostgres, nil)
	require.NoError(t, err)

	tables, err := in.Tables(context.Background(), "public")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, tables, 1)
	assert.Equal(t, []core.Constraint{
		{Name: "t_a_b_check", Kind: core.ConstraintCheck, Columns: []string{"a", "b"}},
		{Name: "t_a_check", Kind: core.ConstraintCheck, Columns: []string{"a"}},
		{Name: "t_const_check", Kind: core.ConstraintCheck},
	}, tables[0].Constraints)
}

func TestTables_PostgresQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("analytics").
		WillReturnError(sql.ErrConnDone)

	in, err := New(db, core.TargetPostgres, nil)
	require.NoError(t, err)

	_, err = in.Tables(context.Background(), "analytics")
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.ErrorContains(t, err, "failed to list tables")
}

func TestTables_DuckDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`table_schema = \? AND table_type = 'BASE TABLE'`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("events"))
	mock.ExpectQuery(`FROM information_schema.columns\s+WHERE table_schema = \?`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "data_type", "is_nullable", "ordinal_position", "column_default",
		}).
			AddRow("events", "id", "BIGINT", "NO", 1, nil).
			AddRow("events", "at", "TIMESTAMP", "YES", 2, "now()"))
	mock.ExpectQuery(`FROM information_schema.table_constraints`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_name", "constraint_type", "column_name"}).
			AddRow("events", "events_id_pkey", "PRIMARY KEY", "id").
			AddRow("events", "events_at_not_null", "NOT NULL", "at"))
	mock.ExpectQuery(`FROM duckdb_indexes\(\)`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "index_name", "sql"}).
			AddRow("events", "events_at_idx", "CREATE INDEX events_at_idx ON events(at);"))

	in, err := New(db, core.TargetDuckDB, nil)
	require.NoError(t, err)

	tables, err := in.Tables(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, tables, 1)
	events := tables[0]
	assert.Equal(t, "main.events", events.QualifiedName())
	require.Len(t, events.Columns, 2)
	require.NotNil(t, events.Columns[1].Default)
	assert.Equal(t, "now()", *events.Columns[1].Default)
	assert.True(t, events.Columns[1].Nullable)
	assert.Equal(t, []core.Constraint{{
		Name: "events_id_pkey", Kind: core.ConstraintPrimaryKey, Columns: []string{"id"},
	}}, events.Constraints)
	assert.Equal(t, []core.Index{{Name: "events_at_idx", Columns: []string{"at"}}}, events.Indexes)
}

func openSQLite(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

var sqliteCatalog = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT,
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE INDEX users_name_idx ON users(name)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total NUMERIC DEFAULT 0
	)`,
}

func TestTables_SQLite(t *testing.T) {
	db := openSQLite(t, sqliteCatalog...)

	in, err := New(db, core.TargetSQLite, testutil.NewTestLogger(t))
	require.NoError(t, err)

	tables, err := in.Tables(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders, users := tables[0], tables[1]
	assert.Equal(t, "main.orders", orders.QualifiedName())
	assert.Equal(t, "main.users", users.QualifiedName())

	zero := "0"
	assert.Equal(t, []core.Column{
		{Name: "id", Type: "integer", Position: 1},
		{Name: "user_id", Type: "integer", Position: 2},
		{Name: "total", Type: "numeric", Nullable: true, Position: 3, Default: &zero},
	}, orders.Columns)
	assert.Equal(t, []core.Constraint{
		{Name: "orders_pkey", Kind: core.ConstraintPrimaryKey, Columns: []string{"id"}},
		{Name: "orders_user_id_fkey", Kind: core.ConstraintForeignKey, Columns: []string{"user_id"}, References: "main.users(id)"},
	}, orders.Constraints)
	assert.Empty(t, orders.Indexes)

	assert.Equal(t, []core.Column{
		{Name: "id", Type: "integer", Position: 1},
		{Name: "name", Type: "text", Nullable: true, Position: 2},
		{Name: "email", Type: "text", Position: 3},
	}, users.Columns)
	assert.Equal(t, []core.Constraint{
		{Name: "users_email_key", Kind: core.ConstraintUnique, Columns: []string{"email"}},
		{Name: "users_pkey", Kind: core.ConstraintPrimaryKey, Columns: []string{"id"}},
	}, users.Constraints)
	assert.Equal(t, []core.Index{{Name: "users_name_idx", Columns: []string{"name"}}}, users.Indexes)
}

func TestTables_SQLiteEmpty(t *testing.T) {
	db := openSQLite(t)

	in, err := New(db, core.TargetSQLite, nil)
	require.NoError(t, err)

	tables, err := in.Tables(context.Background(), "main")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestTables_SQLiteDriftDiff(t *testing.T) {
	db := openSQLite(t, sqliteCatalog...)
	in, err := New(db, core.TargetSQLite, nil)
	require.NoError(t, err)
	ctx := context.Background()

	before, err := in.Tables(ctx, "")
	require.NoError(t, err)

	_, err = db.Exec(`ALTER TABLE users ADD COLUMN age INTEGER`)
	require.NoError(t, err)
	_, err = db.Exec(`DROP TABLE orders`)
	require.NoError(t, err)

	after, err := in.Tables(ctx, "")
	require.NoError(t, err)

	e := diff.NewEngine(nil)
	require.NoError(t, e.LoadLastState(schema.Forest(before)))
	require.NoError(t, e.LoadCurrentState(schema.Forest(after)))

	patches, err := e.Diff()
	require.NoError(t, err)

	var got []string
	for _, p := range patches {
		name, _ := p.Subject()
		got = append(got, string(p.Kind())+" "+name)
	}
	assert.Equal(t, []string{
		"modify main.users",
		"new main.users.age",
		"delete main.orders",
	}, got)
}

func TestDriverName(t *testing.T) {
	for typ, want := range map[string]string{"postgres": "pgx", "duckdb": "duckdb", "sqlite": "sqlite"} {
		got, err := DriverName(typ)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := DriverName("mysql")
	assert.Error(t, err)
}

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()

	_, err := Connect(ctx, &core.TargetConfig{Type: core.TargetSQLite})
	assert.ErrorContains(t, err, "no target configured")

	db, err := Connect(ctx, &core.TargetConfig{Type: core.TargetSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
