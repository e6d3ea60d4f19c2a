// Package state persists environment baselines and the applied-patch log in
// SQLite.
package state

import (
	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// Type aliases so callers of this package need not import pkg/core.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// PatchRecord is an alias for core.PatchRecord.
	PatchRecord = core.PatchRecord
)

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
