package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/backend"
	"github.com/febros/localesdash/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			// The dashboard owns the screen, so logs go to a file.
			var logOut io.Writer = io.Discard
			if cfg.LogFile != "" {
				f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				logOut = f
			}
			logger := newLogger(cfg.LogLevel, logOut)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, store, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client := backend.New(cfg.Backend, logger)

			cfgPath := cfgFile
			if _, err := os.Stat(cfgPath); err != nil {
				cfgPath = ""
			}

			return tui.Run(ctx, tui.Deps{
				Auth:     auth.New(client, logger),
				Session:  sess,
				Fetcher:  client,
				Interval: cfg.PollInterval(),
				Loc:      loc,
				Logger:   logger,
			}, cfgPath)
		},
	}
}
