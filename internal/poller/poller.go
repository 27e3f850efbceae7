// Package poller refreshes the emitter list on a fixed interval.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/febros/localesdash/internal/emitter"
)

// Fetcher returns the current emitter list.
type Fetcher interface {
	Emitters(ctx context.Context) ([]emitter.Record, error)
}

// Sink receives each successful fetch. It runs on the fetching goroutine,
// must not block for long and must not call back into the Poller.
type Sink func(records []emitter.Record)

// Poller fetches once on Start and then every interval until Stop. Ticks
// do not wait for the previous fetch to finish, so fetches may overlap
// when the backend is slower than the interval. A fetch that returns
// after Stop is discarded.
type Poller struct {
	fetcher Fetcher
	sink    Sink
	logger  *slog.Logger
	metrics *metrics

	mu       sync.RWMutex
	interval time.Duration
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	reset    chan time.Duration
	wg       sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithRegisterer registers the poll metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Poller) { p.metrics.register(reg) }
}

// New returns a stopped poller.
func New(fetcher Fetcher, sink Sink, interval time.Duration, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		sink:     sink,
		logger:   logger,
		metrics:  newMetrics(),
		interval: interval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches immediately and then on every tick. Calling Start on a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	if p.interval <= 0 {
		return errors.New("poll interval must be positive")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.gen++
	p.cancel = cancel
	p.done = make(chan struct{})
	p.reset = make(chan time.Duration, 1)

	gen := p.gen
	p.wg.Add(1)
	go p.fetch(ctx, gen)
	go p.loop(ctx, gen, p.interval, p.reset, p.done)

	p.logger.Info("poller started", "interval", p.interval)
	return nil
}

// Stop cancels the schedule. Results of fetches still in flight are
// dropped. Stop does not wait for those fetches to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cancel = nil
	p.gen++
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info("poller stopped")
}

// Wait blocks until every fetch started so far has returned. Call it
// after Stop.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// SetInterval changes the tick period. A running poller restarts its
// ticker with the new period without an extra fetch.
func (p *Poller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("poll interval must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if d == p.interval {
		return nil
	}
	p.interval = d
	if p.cancel != nil {
		select {
		case <-p.reset:
		default:
		}
		p.reset <- d
	}
	p.logger.Info("poll interval changed", "interval", d)
	return nil
}

// Interval returns the current tick period.
func (p *Poller) Interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// Running reports whether the schedule is active.
func (p *Poller) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, gen uint64, interval time.Duration, reset <-chan time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-reset:
			ticker.Reset(d)
		case <-ticker.C:
			p.wg.Add(1)
			go p.fetch(ctx, gen)
		}
	}
}

// fetch runs one request. The request itself ignores cancellation so a
// slow backend call completes and is logged; its result is only delivered
// while gen is still current.
func (p *Poller) fetch(ctx context.Context, gen uint64) {
	defer p.wg.Done()

	p.metrics.inflight.Inc()
	defer p.metrics.inflight.Dec()

	start := time.Now()
	records, err := p.fetcher.Emitters(context.WithoutCancel(ctx))
	if err != nil {
		p.metrics.fetches.WithLabelValues("error").Inc()
		p.logger.Warn("emitter fetch failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if gen != p.gen {
		p.metrics.fetches.WithLabelValues("discarded").Inc()
		p.logger.Debug("discarding fetch after stop", "records", len(records))
		return
	}
	p.metrics.fetches.WithLabelValues("success").Inc()
	p.metrics.records.Set(float64(len(records)))
	p.metrics.lastSuccess.SetToCurrentTime()
	p.logger.Debug("emitters fetched", "records", len(records), "duration_ms", time.Since(start).Milliseconds())
	p.sink(records)
}
