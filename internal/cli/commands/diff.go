package commands

import (
	"github.com/spf13/cobra"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	var lastPath, currentPath string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the patches that turn the baseline into the current schema",
		Long: `Compare two schema snapshots and print the patches between them.

The baseline defaults to the one recorded for the environment in the state
database (empty if none). The current schema defaults to the configured target.`,
		Example: `  # Diff the recorded baseline against the live database
  leapdiff diff

  # Diff two snapshot files
  leapdiff diff --last before.yaml --current after.yaml

  # Machine-readable output
  leapdiff diff --current after.yaml --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd, lastPath, currentPath)
		},
	}

	cmd.Flags().StringVar(&lastPath, "last", "", "Baseline snapshot file (default: recorded baseline)")
	cmd.Flags().StringVar(&currentPath, "current", "", "Current snapshot file (default: introspect the target)")
	return cmd
}

func runDiff(cmd *cobra.Command, lastPath, currentPath string) error {
	var (
		cmdCtx *CommandContext
		err    error
	)
	if lastPath != "" {
		cmdCtx, err = NewCommandContextWithoutStore(cmd)
	} else {
		var cleanup func()
		cmdCtx, cleanup, err = NewCommandContext(cmd)
		if cleanup != nil {
			defer cleanup()
		}
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	last, err := cmdCtx.LastForest(ctx, lastPath)
	if err != nil {
		return err
	}
	current, err := cmdCtx.CurrentForest(ctx, currentPath)
	if err != nil {
		return err
	}

	_, patches, err := computeDiff(cmdCtx.Logger, last, current)
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.Patches(cmdCtx.Cfg.Environment, patches)
}
