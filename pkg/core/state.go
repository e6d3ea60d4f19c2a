package core

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// Store defines the interface for baseline state operations.
//
// A baseline is the "last" snapshot of one environment: the schema known to
// be applied. The patch log records every change that moved it forward.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Baseline operations
	SaveBaseline(ctx context.Context, env string, forest []diff.Entity) error
	GetBaseline(ctx context.Context, env string) ([]diff.Entity, bool, error)

	// Patch log operations
	RecordPatches(ctx context.Context, env string, patches []diff.Patch) error
	ListPatches(ctx context.Context, env string, limit int) ([]*PatchRecord, error)

	// ApplyPatches saves forest as the baseline of env and logs patches
	// atomically.
	ApplyPatches(ctx context.Context, env string, forest []diff.Entity, patches []diff.Patch) error
}

// PatchRecord is one applied patch as stored in the patch log.
type PatchRecord struct {
	ID          string         `json:"id"`
	Environment string         `json:"environment"`
	Sequence    int            `json:"sequence"`
	Kind        diff.PatchKind `json:"kind"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	// Payload is the JSON encoding of the patch.
	Payload   string    `json:"payload"`
	AppliedAt time.Time `json:"applied_at"`
}
