// Package server wires the browser dashboard: it owns the shared emitter
// view, the poller that refreshes it, the session store and the HTTP
// listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/backend"
	"github.com/febros/localesdash/internal/config"
	"github.com/febros/localesdash/internal/dashboard"
	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/poller"
	"github.com/febros/localesdash/internal/session"
	"github.com/febros/localesdash/internal/telemetry"
)

// Server is the localesdash HTTP server.
type Server struct {
	cfg        *config.Config
	cfgPath    string
	srv        *http.Server
	ln         net.Listener
	metricsSrv *http.Server
	store      session.Store
	view       *emitter.View
	poller     *poller.Poller
	logger     *slog.Logger

	shutdownTracing func(context.Context) error
	runCtx          context.Context
	cancel          context.CancelFunc
}

// NewServer creates and wires the dashboard server. Spans go to traceOut
// when tracing is enabled.
func NewServer(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger, traceOut io.Writer) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	shutdownTracing, err := telemetry.SetupTracing(cfg.Telemetry.Tracing, traceOut)
	if err != nil {
		return nil, err
	}

	store, err := session.Open(ctx, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	reg := telemetry.NewRegistry()
	client := backend.New(cfg.Backend, logger)
	authn := auth.New(client, logger, auth.WithRegisterer(reg))

	view := emitter.NewView()
	poll := poller.New(client, view.Replace, cfg.PollInterval(), logger, poller.WithRegisterer(reg))

	dash := dashboard.NewServer(authn, store, view, poll, loc, logger)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"records":          view.Len(),
			"poll_interval_ms": poll.Interval().Milliseconds(),
		})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	// Mount dashboard (auth middleware applied internally)
	mux.Handle("/dashboard/", dash.Handler())
	mux.Handle("/dashboard", dash.Handler())

	var metricsSrv *http.Server
	if cfg.Telemetry.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", telemetry.MetricsHandler(reg))
		metricsSrv = &http.Server{
			Addr:              cfg.Telemetry.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	} else {
		mux.Handle("GET /metrics", telemetry.MetricsHandler(reg))
	}

	// Apply middleware to the mux
	var h http.Handler = mux
	h = securityHeaders(h)
	h = logging(logger)(h)
	h = recovery(logger)(h)
	h = requestID(h)
	h = otelhttp.NewHandler(h, telemetry.ServiceName)

	// Bind to 127.0.0.1 by default (localhost only).
	bind := cfg.Dashboard.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}

	// Try configured port, auto-find next available if busy.
	ln, actualPort, err := listenAutoPort(bind, cfg.Dashboard.Port, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("binding port: %w", err)
	}
	cfg.Dashboard.Port = actualPort

	srv := &http.Server{
		Handler:        h,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	runCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:             cfg,
		cfgPath:         cfgPath,
		srv:             srv,
		ln:              ln,
		metricsSrv:      metricsSrv,
		store:           store,
		view:            view,
		poller:          poll,
		logger:          logger,
		shutdownTracing: shutdownTracing,
		runCtx:          runCtx,
		cancel:          cancel,
	}, nil
}

// listenAutoPort tries the configured port; if busy, scans up to 10 higher ports.
func listenAutoPort(bind string, port int, logger *slog.Logger) (net.Listener, int, error) {
	addr := net.JoinHostPort(bind, fmt.Sprint(port))
	ln, err := net.Listen("tcp", addr)
	if err == nil {
		// Port 0 lets the OS pick; report the port actually bound.
		actual := ln.Addr().(*net.TCPAddr).Port
		return ln, actual, nil
	}
	if !isAddrInUse(err) || port == 0 {
		return nil, 0, err
	}

	logger.Warn("port in use, searching for available port", "port", port)
	for offset := 1; offset <= 10; offset++ {
		tryPort := port + offset
		ln, err = net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(tryPort)))
		if err == nil {
			logger.Info("using alternative port", "original", port, "actual", tryPort)
			return ln, tryPort, nil
		}
	}
	return nil, 0, fmt.Errorf("port %d and next 10 ports are all in use", port)
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// Port returns the actual port the server is bound to.
func (s *Server) Port() int {
	return s.cfg.Dashboard.Port
}

// View exposes the shared emitter view.
func (s *Server) View() *emitter.View {
	return s.view
}

// Start begins polling and listening. Blocks until the server is shut down.
//
// Polling starts right away and runs whether or not any browser is logged
// in. The session only gates who may see the shared view, so the first
// viewer to log in finds data already loaded.
func (s *Server) Start() error {
	s.logger.Info("localesdash dashboard starting",
		"addr", s.ln.Addr().String(),
		"backend", s.cfg.Backend.URL,
		"poll_interval", s.cfg.PollInterval(),
		"session_driver", s.cfg.Session.Driver,
	)

	if err := s.poller.Start(s.runCtx); err != nil {
		return err
	}

	if s.cfgPath != "" {
		go func() {
			if err := config.Watch(s.runCtx, s.cfgPath, s.logger, s.applyConfig); err != nil {
				s.logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	if s.metricsSrv != nil {
		go func() {
			s.logger.Info("metrics listening", "addr", s.metricsSrv.Addr)
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	return s.srv.Serve(s.ln)
}

// applyConfig takes the settings that can change while running.
func (s *Server) applyConfig(cfg *config.Config) {
	if err := s.poller.SetInterval(cfg.PollInterval()); err != nil {
		s.logger.Warn("ignoring poll interval", "error", err)
	}
	if cfg.Backend.URL != s.cfg.Backend.URL {
		s.logger.Warn("backend.url changed; restart to apply", "url", cfg.Backend.URL)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	s.cancel()
	s.poller.Stop()

	err := s.srv.Shutdown(ctx)
	if s.metricsSrv != nil {
		if merr := s.metricsSrv.Shutdown(ctx); merr != nil && err == nil {
			err = merr
		}
	}
	if terr := s.shutdownTracing(ctx); terr != nil && err == nil {
		err = terr
	}
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
