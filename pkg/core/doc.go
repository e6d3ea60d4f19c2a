// Package core defines the shared language of the leapdiff system.
//
// This package contains:
//   - Catalog types (Table, Column, Index, Constraint) read from a database
//   - Entity role names used when catalogs are turned into diff snapshots
//   - Target configuration shared by the CLI and the introspector
//   - The baseline Store interface and its patch log records
//
// The Golden Rule: pkg/core imports ONLY pkg/diff and stdlib.
// All other packages depend on core, not the reverse.
package core
