package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/backend"
)

func newLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the user for the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger("error", os.Stderr)
			out := cmd.OutOrStdout()

			if username == "" {
				username, err = promptLine(bufio.NewReader(cmd.InOrStdin()), out, "Usuario: ")
				if err != nil {
					return fmt.Errorf("reading username: %w", err)
				}
			}
			password, err := promptPassword(out, "Contraseña: ")
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, store, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			authn := auth.New(backend.New(cfg.Backend, logger), logger)
			if err := authn.Login(ctx, sess, username, password); err != nil {
				if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrCredentialsUnavailable) {
					return err
				}
				return errors.New(auth.FailureMessage)
			}

			color.New(color.FgGreen).Fprintf(out, "Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, store, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := sess.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
