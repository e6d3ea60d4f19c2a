package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// DriverName returns the database/sql driver registered for a target type.
// The binary registers pgx, go-duckdb and modernc sqlite.
func DriverName(targetType string) (string, error) {
	switch targetType {
	case core.TargetPostgres:
		return "pgx", nil
	case core.TargetDuckDB:
		return "duckdb", nil
	case core.TargetSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unknown target type %q", targetType)
}

// Connect opens and pings the database described by t.
func Connect(ctx context.Context, t *core.TargetConfig) (*sql.DB, error) {
	if t == nil || t.DSN == "" {
		return nil, fmt.Errorf("no target configured (set target.type and target.dsn)")
	}
	driver, err := DriverName(t.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, t.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s target: %w", t.Type, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s target: %w", t.Type, err)
	}
	return db, nil
}
