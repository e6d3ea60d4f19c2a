package core

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, sqlite, duckdb

	// DSN is passed to sql.Open unchanged; ${VAR} references are expanded
	// when the config is loaded.
	DSN string `koanf:"dsn"`

	// Schema is the schema to introspect. Empty means the dialect default.
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Supported target types.
const (
	TargetPostgres = "postgres"
	TargetSQLite   = "sqlite"
	TargetDuckDB   = "duckdb"
)

// KnownTargetTypes lists every target type the introspector understands.
func KnownTargetTypes() []string {
	return []string{TargetPostgres, TargetSQLite, TargetDuckDB}
}
