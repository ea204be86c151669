package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long:  "Serves the CSV proxy, dashboard data, session lookups and Prometheus metrics over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}

		f := newFetcher(cfg)
		deps := server.Deps{
			Fetcher: f,
			// The server is the proxy, so its own loads go direct.
			Loader:  ingest.NewLoader(f, ""),
			Checker: newClient(cfg),
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			deps.Sessions = st
		}

		srv := server.New(deps, server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ProxyRPS:       cfg.Server.ProxyRPS,
			ProxyBurst:     cfg.Server.ProxyBurst,
		})

		zap.L().Info("serve: dependencies ready",
			zap.String("store", cfg.Store.Driver),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Bool("sessions", deps.Sessions != nil),
		)
		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
