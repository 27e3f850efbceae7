package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/febros/localesdash/internal/config"
)

// Run shows the terminal dashboard until the operator quits or ctx is
// done. When cfgPath is set, edits to poll.interval_ms apply live.
func Run(ctx context.Context, deps Deps, cfgPath string) error {
	m := newModel(ctx, deps)
	defer m.rt.stop()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if cfgPath != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := config.Watch(watchCtx, cfgPath, m.logger, func(cfg *config.Config) {
				p.Send(IntervalMsg{Interval: cfg.PollInterval()})
			})
			if err != nil {
				m.logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
