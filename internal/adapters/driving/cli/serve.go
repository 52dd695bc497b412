package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirelens-labs/hirelens/internal/adapters/driving/httpapi"
	"github.com/hirelens-labs/hirelens/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and scheduler as a daemon",
	Long: `Starts the HTTP API and the background scheduler, then blocks until
SIGINT or SIGTERM. The config file is watched for edits while serving.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Pipeline == nil || deps.Companies == nil {
		return errors.New("services not configured")
	}

	addr := serveAddr
	token := ""
	if deps.Config != nil {
		if addr == "" {
			addr = deps.Config.GetString("server.addr")
		}
		token = deps.Config.GetString("server.token")

		// Sources and the scheduler read config at use time, so a reload
		// takes effect on the next run without a restart.
		if err := deps.Config.Watch(func() {
			logger.Info("Configuration reloaded")
		}); err != nil {
			logger.Warn("Config watch unavailable: %v", err)
		}
	}

	server := httpapi.New(httpapi.Config{Addr: addr, AdminToken: token},
		deps.Pipeline, deps.Companies, deps.Metrics)
	if err := server.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	schedErr := make(chan error, 1)
	if deps.Scheduler != nil {
		// Start blocks until Stop; run it beside the server.
		go func() { schedErr <- deps.Scheduler.Start(ctx) }()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down on %s", sig)
	case err := <-schedErr:
		if err != nil {
			logger.Warn("Scheduler stopped: %v", err)
		}
	case <-ctx.Done():
	}

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Stop(); err != nil {
			logger.Warn("Scheduler stop: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
