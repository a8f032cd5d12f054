package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var in inputFlags
	var view, output string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the SVG whenever the input file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.sample || in.empty() {
				return errors.New("watch needs --projects or --csv")
			}
			out := cmd.OutOrStdout()
			if err := a.renderOnce(out, &in, view, output); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("Watching for changes", zap.String("file", in.path()))
			return watchFile(ctx, in.path(), a.logger, func() {
				// A half-written or invalid file is reported and skipped;
				// the previous SVG stays in place.
				if err := a.renderOnce(out, &in, view, output); err != nil {
					a.logger.Error("Re-render failed", zap.Error(err))
				}
			})
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&view, "view", "", "View mode: Day, Week, Month, Quarter or Semester")
	cmd.Flags().StringVar(&output, "output", "", "Output SVG filename (optional)")
	return cmd
}

// watchFile calls onChange for every write or create of path until ctx is
// done. The parent directory is watched so that editors which replace the
// file on save are still seen.
func watchFile(ctx context.Context, path string, logger *zap.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Debug("fsnotify event", zap.String("op", event.Op.String()), zap.String("file", event.Name))
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", zap.Error(err))
		}
	}
}
