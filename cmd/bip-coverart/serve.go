package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/bip-coverart/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cover art over MCP on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if s.cfg.Debug() {
				s.logger.Printf("bip-coverart v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
			}
			if s.cfg.WatchArt {
				if err := s.watchArt(ctx); err != nil {
					s.logger.Printf("Warning: art watcher disabled: %v", err)
				}
			}
			return server.New(s.resp, s.logger, Version).Run(ctx)
		})
	},
}
