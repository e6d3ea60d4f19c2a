package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// RecordPatches appends patches to the log of env in one transaction.
// Sequence numbers continue from the last recorded patch.
func (s *SQLiteStore) RecordPatches(ctx context.Context, env string, patches []diff.Patch) error {
	if s.db == nil {
		return errNotOpened
	}
	if len(patches) == 0 {
		return nil
	}

	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.recordPatches(ctx, tx, env, patches)
	}); err != nil {
		return err
	}

	s.logger.Debug("patches recorded", "environment", env, "count", len(patches))
	return nil
}

// ApplyPatches moves the baseline of env to forest and logs the patches
// that produced it. Both happen in one transaction: if either fails the
// baseline and the log are left as they were.
func (s *SQLiteStore) ApplyPatches(ctx context.Context, env string, forest []diff.Entity, patches []diff.Patch) error {
	if s.db == nil {
		return errNotOpened
	}

	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.saveBaseline(ctx, tx, env, forest); err != nil {
			return err
		}
		return s.recordPatches(ctx, tx, env, patches)
	}); err != nil {
		return err
	}

	s.logger.Debug("patches applied", "environment", env, "count", len(patches), "roots", len(forest))
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) recordPatches(ctx context.Context, tx *sql.Tx, env string, patches []diff.Patch) error {
	if len(patches) == 0 {
		return nil
	}

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM patch_log WHERE environment = ?`, env,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO patch_log (id, environment, sequence, kind, name, role, payload, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	appliedAt := s.now().Format(timeLayout)
	for i, p := range patches {
		if p == nil {
			return fmt.Errorf("patch %d is nil", i)
		}
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode patch %d: %w", i, err)
		}
		name, role := p.Subject()
		if _, err := stmt.ExecContext(ctx,
			generateID(), env, last+i+1, string(p.Kind()), name, role, string(payload), appliedAt,
		); err != nil {
			return fmt.Errorf("insert patch %d: %w", i, err)
		}
	}
	return nil
}

// ListPatches returns up to limit patches recorded for env, newest first.
// A limit of zero or less returns all of them.
func (s *SQLiteStore) ListPatches(ctx context.Context, env string, limit int) ([]*PatchRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, environment, sequence, kind, name, role, payload, applied_at
		FROM patch_log
		WHERE environment = ?
		ORDER BY sequence DESC
		LIMIT ?
	`, env, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*PatchRecord
	for rows.Next() {
		rec := &PatchRecord{}
		var kind, appliedAt string
		if err := rows.Scan(&rec.ID, &rec.Environment, &rec.Sequence, &kind,
			&rec.Name, &rec.Role, &rec.Payload, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan patch: %w", err)
		}
		rec.Kind = diff.PatchKind(kind)
		if rec.AppliedAt, err = time.Parse(timeLayout, appliedAt); err != nil {
			return nil, fmt.Errorf("patch %s: bad applied_at: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DecodePatch rebuilds the patch stored in rec.
func DecodePatch(rec *PatchRecord) (diff.Patch, error) {
	var p diff.Patch
	switch rec.Kind {
	case diff.KindNew:
		p = &diff.NewPatch{}
	case diff.KindModify:
		p = &diff.ModifyPatch{}
	case diff.KindDelete:
		p = &diff.DeletePatch{}
	default:
		return nil, fmt.Errorf("unknown patch kind %q", rec.Kind)
	}
	if err := json.Unmarshal([]byte(rec.Payload), p); err != nil {
		return nil, fmt.Errorf("decode patch %s: %w", rec.ID, err)
	}
	return p, nil
}
