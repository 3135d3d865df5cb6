package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/discover"
	"github.com/phobologic/pyscope/internal/report"
	"github.com/phobologic/pyscope/internal/runner"
)

func newRunCmd() *cobra.Command {
	var (
		rootFlag       string
		timeoutSeconds int
	)

	cmd := &cobra.Command{
		Use:   "run [target ...]",
		Short: "Run tests by dotted path",
		Long: `Run the given dotted unittest targets through the configured runner,
e.g. pyscope run tests.test_user.TestUser.test_create. With no targets on
an interactive terminal, a picker lists every test method in the project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(rootFlag)
			if err != nil {
				return err
			}
			cfg, err := config.LoadDir(root)
			if err != nil {
				return err
			}

			timeout := cfg.RunnerTimeout()
			if cmd.Flags().Changed("timeout") {
				timeout = time.Duration(timeoutSeconds) * time.Second
			}

			targets := args
			if len(targets) == 0 {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return errors.New("no targets given; pass dotted paths or run on an interactive terminal")
				}
				targets, err = pickTargets(cmd, root)
				if err != nil {
					return err
				}
			}

			run := &runner.Runner{Command: cfg.Runner.Command, Dir: root, Timeout: timeout}
			var results []*runner.Result
			for _, target := range targets {
				res, err := run.Run(cmd.Context(), target)
				if err != nil {
					return err
				}
				if !res.Passed {
					if out := strings.TrimSpace(res.Output); out != "" {
						fmt.Fprintln(cmd.OutOrStdout(), out)
					}
				}
				results = append(results, res)
			}

			fmt.Fprint(cmd.OutOrStdout(), report.RunSummary(results))

			failed := 0
			for _, res := range results {
				if !res.Passed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d targets failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "project root (default: auto-detected)")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "per-target timeout in seconds (default: from config)")
	return cmd
}

// pickTargets lets the user multi-select test methods from the project
// catalog.
func pickTargets(cmd *cobra.Command, root string) ([]string, error) {
	paths, err := discover.Files(root, true)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	cats := catalog.BuildFiles(root, paths, cmd.ErrOrStderr())

	var options []huh.Option[string]
	for _, fc := range cats {
		for _, m := range catalog.Methods(fc.Node) {
			label := fmt.Sprintf("%s  (%s:%d)", m.DottedTarget, fc.Path, m.SourceLine+1)
			options = append(options, huh.NewOption(label, m.DottedTarget))
		}
	}
	if len(options) == 0 {
		return nil, errors.New("no test methods found")
	}

	var picked []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Select tests to run").
			Options(options...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, errors.New("nothing selected")
	}
	return picked, nil
}
