package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/febros/localesdash/internal/backend"
	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/session"
)

func newEmittersCmd() *cobra.Command {
	var query, status, from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "emitters",
		Short: "Fetch the emitter list once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			f := emitter.Filter{Query: query, Loc: loc}
			if f.Status, err = emitter.ParseStatus(status); err != nil {
				return err
			}
			if f.Start, err = emitter.ParseDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if f.End, err = emitter.ParseDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			ctx := context.Background()
			sess, store, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			_, ok, err := sess.Restore(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: run localesdash login first", session.ErrNotLoggedIn)
			}

			logger := newLogger(cfg.LogLevel, os.Stderr)
			records, err := backend.New(cfg.Backend, logger).Emitters(ctx)
			if err != nil {
				return err
			}

			visible := emitter.Apply(records, f)
			if asJSON {
				return writeEmittersJSON(cmd.OutOrStdout(), visible, loc)
			}
			printEmitters(cmd.OutOrStdout(), visible, len(records), loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by id or name (case-insensitive)")
	cmd.Flags().StringVar(&status, "status", "all", "all, active or inactive")
	cmd.Flags().StringVar(&from, "from", "", "earliest payment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest payment date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printEmitters(w io.Writer, visible []emitter.Record, total int, loc *time.Location) {
	active, inactive := emitter.Counts(visible)
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMISOR\tFECHA DE PAGO\tESTADO")
	for _, r := range visible {
		state := red("Inactive")
		if r.Active {
			state = green("Active")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Label(), emitter.FormatDate(r.FechaAlta, loc), state)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d of %d shown, %d active, %d inactive\n", len(visible), total, active, inactive)
}

type emitterJSON struct {
	ID     emitter.ID `json:"idEmisor"`
	Name   string     `json:"name,omitempty"`
	Fecha  *string    `json:"fechaAlta"`
	Shown  string     `json:"fechaPago"`
	Active bool       `json:"active"`
}

func writeEmittersJSON(w io.Writer, visible []emitter.Record, loc *time.Location) error {
	out := make([]emitterJSON, 0, len(visible))
	for _, r := range visible {
		e := emitterJSON{ID: r.ID, Name: r.Name, Shown: emitter.FormatDate(r.FechaAlta, loc), Active: r.Active}
		if r.FechaAlta != nil {
			raw := r.FechaAlta.Raw
			e.Fecha = &raw
		}
		out = append(out, e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
