package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/config"
	"github.com/febros/localesdash/internal/server"
)

func newServeCmd() *cobra.Command {
	var port int
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Dashboard.Port = port
			}
			if bind != "" {
				cfg.Dashboard.Bind = bind
			}

			logger := newLogger(cfg.LogLevel, os.Stderr)

			// Graceful shutdown on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfgPath := cfgFile
			if _, err := os.Stat(cfgPath); err != nil {
				cfgPath = ""
			}

			srv, err := server.NewServer(ctx, cfg, cfgPath, logger, os.Stderr)
			if err != nil {
				return err
			}

			printBanner(cmd.OutOrStdout(), cfg)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override dashboard port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	return cmd
}

func printBanner(w io.Writer, cfg *config.Config) {
	bindAddr := cfg.Dashboard.Bind
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  localesdash")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Dashboard:  http://%s:%d/dashboard\n", bindAddr, cfg.Dashboard.Port)
	fmt.Fprintf(w, "  Health:     http://%s:%d/health\n", bindAddr, cfg.Dashboard.Port)
	if cfg.Telemetry.MetricsAddr != "" {
		fmt.Fprintf(w, "  Metrics:    http://%s/metrics\n", cfg.Telemetry.MetricsAddr)
	} else {
		fmt.Fprintf(w, "  Metrics:    http://%s:%d/metrics\n", bindAddr, cfg.Dashboard.Port)
	}
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Backend:  %s\n", cfg.Backend.URL)
	fmt.Fprintf(w, "  Refresh:  every %s\n", cfg.PollInterval())
	fmt.Fprintf(w, "  Sessions: %s\n", cfg.Session.Driver)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Press Ctrl+C to stop.")
	fmt.Fprintln(w)
}
