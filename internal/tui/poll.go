package tui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/poller"
)

// recordsMsg carries one successful fetch into the update loop. epoch ties
// it to the polling run that produced it.
type recordsMsg struct {
	epoch   uint64
	records []emitter.Record
}

// feed hands fetch results from the poller to the program without ever
// blocking the poller: a slot of one where the newest list wins.
type feed struct {
	mu     sync.Mutex
	ch     chan []emitter.Record
	closed bool
}

func newFeed() *feed {
	return &feed{ch: make(chan []emitter.Record, 1)}
}

func (f *feed) push(records []emitter.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- records
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

func waitForRecords(ch <-chan []emitter.Record, epoch uint64) tea.Cmd {
	return func() tea.Msg {
		records, ok := <-ch
		if !ok {
			return nil
		}
		return recordsMsg{epoch: epoch, records: records}
	}
}

// pollRuntime owns the poller of the logged-in board. It is shared by
// every copy of the model.
type pollRuntime struct {
	fetcher poller.Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	poll     *poller.Poller
	feed     *feed
	epoch    uint64
}

func newPollRuntime(fetcher poller.Fetcher, interval time.Duration, logger *slog.Logger) *pollRuntime {
	return &pollRuntime{fetcher: fetcher, interval: interval, logger: logger}
}

// start replaces any running poller with a fresh one and returns the
// command that waits for its first result.
func (r *pollRuntime) start(ctx context.Context) (tea.Cmd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	r.epoch++
	f := newFeed()
	p := poller.New(r.fetcher, f.push, r.interval, r.logger)
	if err := p.Start(ctx); err != nil {
		f.close()
		return nil, err
	}
	r.poll, r.feed = p, f
	return waitForRecords(f.ch, r.epoch), nil
}

// next waits for the following result of the current run, or returns nil
// when msg belongs to a run that has since been replaced or stopped.
func (r *pollRuntime) next(msg recordsMsg) tea.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.feed == nil || msg.epoch != r.epoch {
		return nil
	}
	return waitForRecords(r.feed.ch, r.epoch)
}

func (r *pollRuntime) current(epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feed != nil && epoch == r.epoch
}

func (r *pollRuntime) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *pollRuntime) stopLocked() {
	if r.poll == nil {
		return
	}
	r.poll.Stop()
	r.feed.close()
	r.poll, r.feed = nil, nil
	r.epoch++
}

func (r *pollRuntime) setInterval(d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poll != nil {
		if err := r.poll.SetInterval(d); err != nil {
			return err
		}
	}
	r.interval = d
	return nil
}

func (r *pollRuntime) getInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}
