// Command pyscope navigates and runs Python tests by reading indentation
// instead of parsing grammar. It lists test classes and methods, resolves
// the dotted unittest path under a cursor, runs targets through the
// configured runner, and serves the same operations to editors over stdio.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/discover"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pyscope",
		Short: "Navigate and run Python tests without a parser",
		Long: `pyscope reads Python files line by line and infers class/function
nesting from indentation alone. That is enough to name the unittest target
under a cursor, list every test class and method in a project, and hand
dotted paths to a test runner - without importing the code or loading a
grammar.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newQualnameCmd(),
		newTestsCmd(),
		newRunCmd(),
		newWatchCmd(),
		newServeCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pyscope %s\n", version)
		},
	}
}

// resolveRoot picks the project root: an explicit flag wins, otherwise the
// nearest ancestor of the working directory carrying a root marker,
// otherwise the working directory itself.
func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return "", fmt.Errorf("resolving --root: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("resolving --root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("--root %q is not a directory", flagRoot)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	markers := append([]string{config.Filename}, discover.DefaultRootMarkers...)
	if root, ok := discover.ProjectRoot(cwd, markers); ok {
		return root, nil
	}
	return cwd, nil
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
