package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdiff/internal/cli/output"
	"github.com/leapstack-labs/leapdiff/internal/config"
	"github.com/leapstack-labs/leapdiff/internal/snapshot"
	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the leapdiff version, the snapshot document format it writes,
and the database targets it can introspect.

Text is written unless --output json is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := output.ModeText
			if cfg, ok := config.FromContext(cmd.Context()); ok && cfg.Output == config.OutputJSON {
				mode = output.ModeJSON
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			return r.Version(output.VersionInfo{
				Version:        version,
				SnapshotFormat: snapshot.Version,
				Targets:        core.KnownTargetTypes(),
				GoVersion:      runtime.Version(),
			})
		},
	}
}
