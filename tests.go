package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/discover"
	"github.com/phobologic/pyscope/internal/report"
)

func newTestsCmd() *cobra.Command {
	var (
		rootFlag string
		format   string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "tests [path ...]",
		Short: "List test classes and methods in the project",
		Long: `Scan for test files, build a catalog of test classes and their methods,
and print it. With no arguments the whole project is scanned; a single
directory argument scans that tree instead; file arguments are cataloged
as given. By default only files following the test naming conventions are
scanned; --all scans every Python file.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, paths, err := testsInputs(rootFlag, args, all)
			if err != nil {
				return err
			}
			cats := catalog.BuildFiles(root, paths, cmd.ErrOrStderr())

			switch format {
			case "tree":
				fmt.Fprint(cmd.OutOrStdout(), report.Tree(cats))
			case "json":
				out, err := report.JSON(cats)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			case "tabular":
				fmt.Fprintln(cmd.OutOrStdout(), report.Tabular(filepath.Base(root), cats))
			default:
				return fmt.Errorf("unknown --format %q (supported: tree, json, tabular)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "project root (default: auto-detected)")
	cmd.Flags().StringVar(&format, "format", "tree", "output format: tree, json or tabular")
	cmd.Flags().BoolVar(&all, "all", false, "scan every Python file, not only test files")
	return cmd
}

// testsInputs turns the command arguments into a root and the root-relative
// paths to catalog. No arguments means a full scan of the project root; one
// directory argument scans that tree; file arguments are taken as given.
func testsInputs(rootFlag string, args []string, all bool) (string, []string, error) {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			root, err := resolveRoot(args[0])
			if err != nil {
				return "", nil, err
			}
			paths, err := discover.Files(root, !all)
			if err != nil {
				return "", nil, fmt.Errorf("scanning %s: %w", root, err)
			}
			return root, paths, nil
		}
	}

	root, err := resolveRoot(rootFlag)
	if err != nil {
		return "", nil, err
	}

	if len(args) == 0 {
		paths, err := discover.Files(root, !all)
		if err != nil {
			return "", nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		return root, paths, nil
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return "", nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if info.IsDir() {
			return "", nil, fmt.Errorf("%s: pass a single directory or individual files, not both", arg)
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		paths = append(paths, rel)
	}
	return root, paths, nil
}
