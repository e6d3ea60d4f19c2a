package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdiff/internal/cli/output"
	"github.com/leapstack-labs/leapdiff/internal/config"
	"github.com/leapstack-labs/leapdiff/internal/introspect"
	"github.com/leapstack-labs/leapdiff/internal/schema"
	"github.com/leapstack-labs/leapdiff/internal/snapshot"
	"github.com/leapstack-labs/leapdiff/internal/state"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	// Store is nil unless the command asked for it.
	Store *state.SQLiteStore
}

// NewCommandContext creates a CommandContext with an open, migrated state
// store. The cleanup function must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext for commands that
// only read snapshot files or the target.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath != ":memory:" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// CurrentForest reads the observed schema from path, or from the configured
// target when path is empty.
func (c *CommandContext) CurrentForest(ctx context.Context, path string) ([]diff.Entity, error) {
	if path != "" {
		return snapshot.ReadFile(path)
	}
	return c.IntrospectTarget(ctx)
}

// LastForest reads the baseline from path, or from the state store when path
// is empty. An environment without a baseline yields an empty forest.
func (c *CommandContext) LastForest(ctx context.Context, path string) ([]diff.Entity, error) {
	if path != "" {
		return snapshot.ReadFile(path)
	}
	if c.Store == nil {
		return nil, fmt.Errorf("no baseline file given and no state store open")
	}
	forest, ok, err := c.Store.GetBaseline(ctx, c.Cfg.Environment)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.Logger.Info("no baseline recorded, diffing against an empty schema",
			"environment", c.Cfg.Environment)
	}
	return forest, nil
}

// IntrospectTarget reads the configured target database into a forest.
func (c *CommandContext) IntrospectTarget(ctx context.Context) ([]diff.Entity, error) {
	if !c.Cfg.HasTarget() {
		return nil, fmt.Errorf("no target configured (set target.type and target.dsn, or pass a snapshot file)")
	}

	db, err := introspect.Connect(ctx, c.Cfg.Target)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	in, err := introspect.New(db, c.Cfg.Target.Type, c.Logger)
	if err != nil {
		return nil, err
	}
	tables, err := in.Tables(ctx, c.Cfg.Target.Schema)
	if err != nil {
		return nil, err
	}
	return schema.Forest(tables), nil
}

// computeDiff loads both snapshots into a fresh engine and diffs them.
func computeDiff(logger *slog.Logger, last, current []diff.Entity) (*diff.Engine, []diff.Patch, error) {
	eng := diff.NewEngine(logger)
	if err := eng.LoadLastState(last); err != nil {
		return nil, nil, fmt.Errorf("failed to load last state: %w", err)
	}
	if err := eng.LoadCurrentState(current); err != nil {
		return nil, nil, fmt.Errorf("failed to load current state: %w", err)
	}
	patches, err := eng.Diff()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to diff: %w", err)
	}
	return eng, patches, nil
}
