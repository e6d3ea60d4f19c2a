package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	var currentPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Record the current schema as the new baseline",
		Long: `Diff the recorded baseline against the current schema, replay every patch
onto the baseline and store the result, appending the patches to the
environment's patch log.

apply does not run DDL. Run it after the database has been migrated.`,
		Example: `  # Accept the live database as the new baseline
  leapdiff apply

  # Accept a snapshot file for the prod environment
  leapdiff apply --current prod.yaml --env prod

  # Show what would be recorded
  leapdiff apply --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, currentPath, dryRun)
		},
	}

	cmd.Flags().StringVar(&currentPath, "current", "", "Current snapshot file (default: introspect the target)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the patches without recording anything")
	return cmd
}

func runApply(cmd *cobra.Command, currentPath string, dryRun bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	env := cmdCtx.Cfg.Environment

	last, err := cmdCtx.LastForest(ctx, "")
	if err != nil {
		return err
	}
	current, err := cmdCtx.CurrentForest(ctx, currentPath)
	if err != nil {
		return err
	}

	eng, patches, err := computeDiff(cmdCtx.Logger, last, current)
	if err != nil {
		return err
	}
	if dryRun || len(patches) == 0 {
		return cmdCtx.Renderer.Patches(env, patches)
	}

	if _, err := eng.Replay(patches); err != nil {
		return fmt.Errorf("failed to replay patches: %w", err)
	}
	baseline, err := eng.LastForest()
	if err != nil {
		return err
	}
	if err := cmdCtx.Store.ApplyPatches(ctx, env, baseline, patches); err != nil {
		return err
	}

	cmdCtx.Logger.Info("baseline updated", "environment", env, "patches", len(patches))
	return cmdCtx.Renderer.Patches(env, patches)
}
