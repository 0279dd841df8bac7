package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ignite/internal/api"
	"ignite/internal/logging"
	"ignite/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withService(func(svc *api.Service) error {
				srv, err := server.New(cfg, svc, logger)
				if err != nil {
					return err
				}
				if err := srv.Start(signalCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", svc.Store().Root(), srv.Addr())
				<-signalCtx.Done()
				srv.Stop()
				logger.Info("api server stopped", logging.String("address", srv.Addr()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured bind address")
	return cmd
}
