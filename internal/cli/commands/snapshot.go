package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdiff/internal/snapshot"
	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand() *cobra.Command {
	var outPath string
	var fromBaseline bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the target schema as a YAML snapshot",
		Long: `Introspect the configured target and write its schema as a YAML snapshot.
With --baseline the environment's recorded baseline is written instead.`,
		Example: `  # Print the live schema
  leapdiff snapshot

  # Save it for a later diff
  leapdiff snapshot --out schema/dev.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd, outPath, fromBaseline)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&fromBaseline, "baseline", false, "Write the recorded baseline instead of the target")
	return cmd
}

func runSnapshot(cmd *cobra.Command, outPath string, fromBaseline bool) error {
	var (
		cmdCtx *CommandContext
		err    error
	)
	if fromBaseline {
		var cleanup func()
		cmdCtx, cleanup, err = NewCommandContext(cmd)
		if cleanup != nil {
			defer cleanup()
		}
	} else {
		cmdCtx, err = NewCommandContextWithoutStore(cmd)
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var load = cmdCtx.IntrospectTarget
	if fromBaseline {
		load = func(ctx context.Context) ([]diff.Entity, error) { return cmdCtx.LastForest(ctx, "") }
	}
	forest, err := load(ctx)
	if err != nil {
		return err
	}

	if outPath == "" {
		return snapshot.Encode(cmd.OutOrStdout(), forest)
	}
	if err := snapshot.WriteFile(outPath, forest); err != nil {
		return err
	}
	cmdCtx.Logger.Info("snapshot written", "path", outPath, "tables", len(forest))
	return nil
}
