package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// watchDebounce is how long the current file must stay quiet before a re-diff.
const watchDebounce = 200 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var lastPath, currentPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the diff whenever the current snapshot changes",
		Long: `Print the diff between two snapshot files, then print it again every time
the current file is written, until interrupted.`,
		Example: `  leapdiff watch --last baseline.yaml --current schema.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, lastPath, currentPath, watchDebounce)
		},
	}

	cmd.Flags().StringVar(&lastPath, "last", "", "Baseline snapshot file (default: recorded baseline)")
	cmd.Flags().StringVar(&currentPath, "current", "", "Current snapshot file to watch")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, lastPath, currentPath string, debounce time.Duration) error {
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

	last, err := cmdCtx.LastForest(ctx, lastPath)
	if err != nil {
		return err
	}

	target, err := filepath.Abs(currentPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", currentPath, err)
	}

	rediff := func() {
		current, err := cmdCtx.CurrentForest(ctx, target)
		if err == nil {
			var patches []diff.Patch
			_, patches, err = computeDiff(cmdCtx.Logger, last, current)
			if err == nil {
				err = cmdCtx.Renderer.Patches(cmdCtx.Cfg.Environment, patches)
			}
		}
		if err != nil {
			cmdCtx.Renderer.Warnf("%s\n", cmdCtx.Renderer.Styles().Error.Render("Error: "+err.Error()))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	rediff()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cmdCtx.Logger.Debug("change detected", "path", target)
			rediff()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Warn("watcher error", "error", err)
		}
	}
}
