package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/config"
	"github.com/febros/localesdash/internal/session"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "localesdash",
		Short:        "Emitter monitoring dashboard",
		Long:         "localesdash shows which emitters have reported a payment date, refreshed from the backend on a fixed interval. Browser and terminal dashboards share one session store.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "localesdash.yaml", "config file path")

	root.AddCommand(
		newServeCmd(),
		newWatchCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newEmittersCmd(),
		newStatusCmd(),
		newHashCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads cfgFile, falling back to defaults plus environment
// overrides when the file does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Defaults()
		err = cfg.ApplyEnv(os.LookupEnv)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// openSession opens the configured store and binds the terminal session
// key. The caller closes the returned store.
func openSession(ctx context.Context, cfg *config.Config) (*session.Session, session.Store, error) {
	store, err := session.Open(ctx, cfg.Session)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	key := cfg.Session.Key
	if key == "" {
		key = session.DefaultKey
	}
	return session.New(store, key), store, nil
}
