package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/auth"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the SHA-256 digest the backend stores for a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd.ErrOrStderr(), "Contraseña: ")
			if err != nil {
				return err
			}
			if pw == "" {
				return errors.New("empty password")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.HashPassword(pw))
			return nil
		},
	}
}
