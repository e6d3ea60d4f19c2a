package state

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdiff/internal/snapshot"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// SaveBaseline stores forest as the baseline of env, replacing any previous one.
func (s *SQLiteStore) SaveBaseline(ctx context.Context, env string, forest []diff.Entity) error {
	if s.db == nil {
		return errNotOpened
	}
	if err := s.saveBaseline(ctx, s.db, env, forest); err != nil {
		return err
	}

	s.logger.Debug("baseline saved", "environment", env, "roots", len(forest))
	return nil
}

func (s *SQLiteStore) saveBaseline(ctx context.Context, db execer, env string, forest []diff.Entity) error {
	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, forest); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO baselines (environment, snapshot, entities, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(environment) DO UPDATE SET
			snapshot = excluded.snapshot,
			entities = excluded.entities,
			updated_at = excluded.updated_at
	`, env, buf.String(), countEntities(forest), s.now().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	return nil
}

// GetBaseline returns the baseline of env. The bool is false when env has
// never had one saved.
func (s *SQLiteStore) GetBaseline(ctx context.Context, env string) ([]diff.Entity, bool, error) {
	if s.db == nil {
		return nil, false, errNotOpened
	}

	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM baselines WHERE environment = ?`, env,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get baseline: %w", err)
	}

	forest, err := snapshot.Decode(strings.NewReader(doc))
	if err != nil {
		return nil, false, fmt.Errorf("baseline %s: %w", env, err)
	}
	return forest, true, nil
}

func countEntities(forest []diff.Entity) int {
	n := 0
	for i := range forest {
		n += 1 + countEntities(forest[i].Children)
	}
	return n
}
