package main

import (
	"fmt"
	"net"

	"github.com/ashwch/vterm/internal/server"
	"github.com/ashwch/vterm/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newServeCmd(state *appState, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serve sessions over HTTP",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToStderr: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := state.app
			ln, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("could not listen on %s: %w", a.cfg.Server.Addr, err)
			}

			sessions := session.NewManager(a.dispatcher, a.startDir, a.cfg.SessionTTL(), a.logger)
			srv := server.New(sessions, server.Options{
				BlockHighRisk: a.cfg.Safety.BlockHighRisk,
				Logger:        a.logger,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vterm serving %s on http://%s\n", a.startDir, ln.Addr())
			a.logger.Info("serve",
				zap.String("addr", ln.Addr().String()),
				zap.Bool("block_high_risk", a.cfg.Safety.BlockHighRisk),
				zap.Duration("session_ttl", a.cfg.SessionTTL()))
			return srv.Serve(cmd.Context(), ln, server.DefaultSweepInterval)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	bindFlag(v, cmd, "server.addr", "addr")
	return cmd
}
