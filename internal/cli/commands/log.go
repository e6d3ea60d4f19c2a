package commands

import (
	"github.com/spf13/cobra"
)

// NewLogCommand creates the log command.
func NewLogCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List patches recorded by apply",
		Long:  `List the patches apply has recorded for the environment, newest first.`,
		Example: `  leapdiff log
  leapdiff log --env prod --limit 20 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLog(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of patches to show (0 for all)")
	return cmd
}

func runLog(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := cmdCtx.Store.ListPatches(cmd.Context(), cmdCtx.Cfg.Environment, limit)
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.PatchLog(records)
}
