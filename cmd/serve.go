package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/api"
)

var (
	servePort    int
	serveMonitor bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "serve", true)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := api.Deps{
			DSS:       a.DSS,
			Intake:    a.Intake,
			Atlas:     a.Atlas,
			Dashboard: a.Dashboard,
			Monitor:   a.Checker,
			DB:        a.Store,
		}
		handler := api.NewRouter(deps, api.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		})

		if serveMonitor && cfg.Monitoring.CheckIntervalSecs > 0 {
			go a.Checker.Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMonitor, "monitor", true, "run background health checks and alert webhook")
	rootCmd.AddCommand(serveCmd)
}
