package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/discover"
)

func newWatchCmd() *cobra.Command {
	var rootFlag string

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch the project and rebuild test catalogs on save",
		Long: `Watch the project tree and rebuild the per-file test catalog whenever a
Python file is written. Each rebuild is logged with the file's current
test count. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootFlag
			if len(args) > 0 {
				dir = args[0]
			}
			root, err := resolveRoot(dir)
			if err != nil {
				return err
			}
			return watch(cmd.Context(), root, newLogger(cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "project root (default: auto-detected)")
	return cmd
}

func watch(ctx context.Context, root string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, root); err != nil {
		return err
	}

	paths, err := discover.Files(root, true)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	cats := catalog.BuildFiles(root, paths, io.Discard)
	known := make(map[string]*catalog.Node, len(cats))
	for _, fc := range cats {
		known[fc.Path] = fc.Node
	}
	logger.Info("watching", "root", root, "testFiles", len(paths), "withTests", len(cats))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(watcher, root, event, known, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// watchTree registers root and every non-skipped directory below it.
// fsnotify watches are not recursive.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event, known map[string]*catalog.Node, logger *slog.Logger) {
	// New directories need their own watch before files inside them fire.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !discover.SkipDir(filepath.Base(event.Name)) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("watching new directory", "dir", event.Name, "error", err)
				}
			}
			return
		}
	}

	if filepath.Ext(event.Name) != ".py" {
		return
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create):
		node, err := catalog.BuildFile(root, rel)
		if err != nil {
			logger.Warn("rebuild failed", "file", rel, "error", err)
			return
		}
		if node == nil {
			if _, had := known[rel]; had {
				delete(known, rel)
				logger.Info("catalog updated", "file", rel, "tests", 0)
			}
			return
		}
		known[rel] = node
		logger.Info("catalog updated", "file", rel, "tests", len(catalog.Methods(node)))

	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		if _, had := known[rel]; had {
			delete(known, rel)
			logger.Info("catalog removed", "file", rel)
		}
	}
}
