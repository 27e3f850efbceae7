package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configuration summary and who is logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			w := cmd.OutOrStdout()

			tz := cfg.Display.Timezone
			if tz == "" {
				tz = "local"
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, "  localesdash status")
			fmt.Fprintln(w, "  ────────────────────────────────────────")
			fmt.Fprintf(w, "  Backend:       %s\n", cfg.Backend.URL)
			fmt.Fprintf(w, "  Refresh:       every %s\n", cfg.PollInterval())
			fmt.Fprintf(w, "  Timezone:      %s\n", tz)
			fmt.Fprintf(w, "  Sessions:      %s\n", sessionTarget(cfg.Session.Driver, cfg.Session.Path, cfg.Session.RedisURL))
			fmt.Fprintf(w, "  Port:          %d\n", cfg.Dashboard.Port)
			fmt.Fprintf(w, "  Config:        %s\n", cfgFile)

			ctx := context.Background()
			sess, store, err := openSession(ctx, cfg)
			if err != nil {
				color.New(color.FgRed).Fprintf(w, "  Session:       unavailable (%v)\n", err)
				fmt.Fprintln(w)
				return nil
			}
			defer func() { _ = store.Close() }()

			user, ok, err := sess.Restore(ctx)
			switch {
			case err != nil:
				color.New(color.FgRed).Fprintf(w, "  Session:       unavailable (%v)\n", err)
			case ok:
				color.New(color.FgGreen).Fprintf(w, "  Logged in:     %s\n", user)
			default:
				color.New(color.FgYellow).Fprintln(w, "  Logged in:     no")
			}
			fmt.Fprintln(w)
			return nil
		},
	}
}

func sessionTarget(driver, path, redisURL string) string {
	switch driver {
	case "sqlite":
		return "sqlite (" + path + ")"
	case "redis":
		if u, err := url.Parse(redisURL); err == nil {
			return "redis (" + u.Redacted() + ")"
		}
		return "redis"
	}
	return driver
}
