package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		dryRun bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter .pyscope.yaml",
		Long: `Write a starter configuration file with the default runner and monitor
settings spelled out. The directory defaults to the current project root.
Existing files are left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			root, err := resolveRoot(dir)
			if err != nil {
				return err
			}

			content := starterConfig()
			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			path := filepath.Join(root, config.Filename)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", path, err)
			}

			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// starterConfig renders the default configuration as a commented YAML file.
// It is a pure function so tests can check it parses back to the defaults.
func starterConfig() string {
	def := config.Default()
	return fmt.Sprintf(`# pyscope configuration.

runner:
  # Command the dotted test targets are appended to.
  command: [%s]
  # Per-target timeout in seconds.
  timeout_seconds: %d

monitor:
  # Warn when more files than this are open in a session.
  max_open_files: %d
  # How often the session checks, in seconds.
  check_interval_seconds: %d

# Files that mark the project root, nearest ancestor wins.
root_markers: [%s]
`,
		yamlStringList(def.Runner.Command),
		def.Runner.TimeoutSeconds,
		def.Monitor.MaxOpenFiles,
		def.Monitor.CheckIntervalSeconds,
		yamlStringList(def.RootMarkers),
	)
}

func yamlStringList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}
