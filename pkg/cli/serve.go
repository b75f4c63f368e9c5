package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/repairdesk/pkg/controller/http"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var enableMetrics bool
	var realtime bool
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("REPAIRDESK_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("REPAIRDESK_METRICS"),
			Destination: &enableMetrics,
		},
		&cli.BoolFlag{
			Name:        "realtime",
			Usage:       "Listen for backend changes and refetch after they settle",
			Value:       true,
			Sources:     cli.EnvVars("REPAIRDESK_REALTIME"),
			Destination: &realtime,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := appCfg.build(ctx, c)
			if err != nil {
				return goerr.Wrap(err, "failed to build use cases")
			}
			defer cleanup()

			// Initial load: cache fallback applies when the backend is unreachable
			result, err := uc.Sync.Fetch(ctx)
			if err != nil {
				return goerr.Wrap(err, "initial fetch failed")
			}
			logging.Default().Info("Initial fetch completed",
				"source", result.Source,
				"cases", len(result.Cases),
				"public_cases", len(result.PublicCases),
				"notice", result.Notice,
			)

			if realtime {
				if err := uc.Realtime.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start realtime listener")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpctrl.WithMetrics(enableMetrics)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics, "realtime", realtime)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the realtime listener before the server goes away
				uc.Realtime.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
