// Package diff computes and replays structural changes between two snapshots
// of hierarchical, named entities.
//
// A snapshot is a forest of Entity values (tables holding columns, columns
// holding constraints, and so on). An Engine flattens a "last" snapshot and a
// "current" snapshot into one append-only arena, matches nodes across the two
// by their (name, role) key and reports the difference as an ordered list of
// Patch values. Once the caller has acted on those patches it feeds them back
// through Engine.Patch, which advances the "last" half in place so it matches
// "current" without another full load.
//
// Keys are derived with a fixed-seed hash (see StableHasher), so they are
// reproducible across runs of the same build.
//
// An Engine is not safe for concurrent use.
package diff
