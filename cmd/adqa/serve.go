package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easyops/adqa-go/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		orch, err := a.orchestrator(ctx)
		if err != nil {
			return err
		}

		cfg := a.cfg.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		srv := server.New(cfg, orch,
			server.WithRecorder(a.recorder),
			server.WithVectorStore(a.vectors),
			server.WithDebugInfo(server.DebugInfoFromConfig(a.cfg)),
			server.WithLogger(a.logger),
		)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr")
}
