// Package dashboard serves the browser UI: login, the filtered emitter
// board with its periodic refresh, and the payment-date popup.
package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/session"
)

// Schedule reports the current refresh period.
type Schedule interface {
	Interval() time.Duration
}

// Server serves the localesdash dashboard UI.
type Server struct {
	authn    *auth.Authenticator
	store    session.Store
	view     *emitter.View
	schedule Schedule
	loc      *time.Location
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewServer creates a dashboard server. Browser sessions live in store
// under "web:<token>" keys.
func NewServer(authn *auth.Authenticator, store session.Store, view *emitter.View, schedule Schedule, loc *time.Location, logger *slog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		authn:    authn,
		store:    store,
		view:     view,
		schedule: schedule,
		loc:      loc,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the dashboard HTTP handler with auth middleware applied.
func (s *Server) Handler() http.Handler {
	return s.Middleware(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /dashboard/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /dashboard/login", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /dashboard/logout", s.handleLogout)
	s.mux.HandleFunc("GET /dashboard", s.handleBoard)
	s.mux.HandleFunc("POST /dashboard/theme", s.handleThemeToggle)

	// HTMX partial endpoints
	s.mux.HandleFunc("GET /dashboard/api/emitters", s.handleAPIEmitters)
	s.mux.HandleFunc("GET /dashboard/api/emitter/{id}", s.handleEmitterPopup)
}
