package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/qualname"
	"github.com/phobologic/pyscope/internal/scan"
)

func newQualnameCmd() *cobra.Command {
	var (
		line     int
		rootFlag string
	)

	cmd := &cobra.Command{
		Use:   "qualname <file>",
		Short: "Print the dotted test path at a line",
		Long: `Print the fully qualified dotted name of the class or function whose
body contains the given line, e.g. tests.test_user.TestUser.test_create.
The line number is 1-based, the way editors display it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if line < 1 {
				return fmt.Errorf("--line must be >= 1")
			}
			root, err := resolveRoot(rootFlag)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving %s: %w", args[0], err)
			}

			modPath := qualname.ModulePath(abs, root)
			name, ok := qualname.Resolve(scan.SplitLines(string(data)), line-1, modPath)
			if !ok {
				return fmt.Errorf("no definition encloses %s:%d", args[0], line)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	cmd.Flags().IntVar(&line, "line", 0, "1-based line number of the cursor")
	cmd.Flags().StringVar(&rootFlag, "root", "", "project root (default: auto-detected)")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}
