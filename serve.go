package main

import (
	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/session"
)

func newServeCmd() *cobra.Command {
	var rootFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor protocol on stdin/stdout",
		Long: `Serve editor clients over stdin/stdout using Content-Length framed
JSON messages. Editors open buffers, query qualified names and test
catalogs, and launch runs; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(rootFlag)
			if err != nil {
				return err
			}
			cfg, err := config.LoadDir(root)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr())
			srv := session.New(root, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			srv.Version = version
			logger.Info("serving", "root", root, "version", version)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "project root (default: auto-detected)")
	return cmd
}
