// Package main provides the leapdiff CLI.
package main

import (
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"  // registers the "pgx" driver
	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver
	_ "modernc.org/sqlite"              // registers the "sqlite" driver

	"github.com/leapstack-labs/leapdiff/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
