package dashboard

import (
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/popup"
	"github.com/febros/localesdash/internal/session"
)

// Popup content size in CSS pixels.
const (
	popupWidth  = 240
	popupHeight = 96
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.restore(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTmpl.Execute(w, map[string]any{"Theme": themeFrom(r)})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	token := generateSessionToken()
	sess := session.New(s.store, sessionKeyPrefix+token)

	if err := s.authn.Login(r.Context(), sess, username, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.logger.Info("login failed", "ip", clientIP(r))
		default:
			s.logger.Error("login error", "ip", clientIP(r), "error", err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = loginTmpl.Execute(w, map[string]any{
			"Theme":    themeFrom(r),
			"Username": username,
			"Error":    auth.FailureMessage,
		})
		return
	}

	s.logger.Info("login success", "user", username, "ip", clientIP(r))
	setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	user, _ := sess.Username()
	if err := sess.Logout(r.Context()); err != nil {
		s.logger.Error("logout failed", "error", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	clearSessionCookie(w)
	s.logger.Info("logout", "user", user, "ip", clientIP(r))
	http.Redirect(w, r, "/dashboard/login", http.StatusFound)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	data := s.board(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = dashboardTmpl.Execute(w, data)
}

// HTMX partial: board contents
func (s *Server) handleAPIEmitters(w http.ResponseWriter, r *http.Request) {
	data := s.board(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = boardPartialTmpl.Execute(w, data)
}

// HTMX partial: payment-date popup. Responds 204 when the emitter has no
// date so nothing is swapped in.
func (s *Server) handleEmitterPopup(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.view.Find(emitter.ID(r.PathValue("id")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	clicked, err := parseRect(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pos := popup.NewPositioner(popupWidth, popupHeight, s.loc)
	if !pos.Open(rec, clicked) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	p, _ := pos.Current()
	bounds, _ := pos.Bounds()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = popupTmpl.Execute(w, map[string]any{
		"Label":  rec.Label(),
		"Text":   p.Text,
		"Top":    px(bounds.Y),
		"Left":   px(bounds.X),
		"Width":  px(bounds.Width),
		"Height": px(bounds.Height),
	})
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	next := "light"
	if themeFrom(r) == "light" {
		next = "dark"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookieName,
		Value:    next,
		Path:     "/dashboard",
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, safeReturn(r.FormValue("next")), http.StatusFound)
}

type boardRow struct {
	ID     string
	Label  string
	Date   string
	Active bool
}

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

type filterForm struct {
	Query, Start, End string
}

type boardData struct {
	User           string
	Theme          string
	Self           string
	Filter         filterForm
	Statuses       []statusOption
	Rows           []boardRow
	Loaded         bool
	Shown          int
	ActiveCount    int
	InactiveCount  int
	RefreshMS      int64
	RefreshSeconds int64
}

func (s *Server) board(r *http.Request) boardData {
	q := r.URL.Query()
	f := parseFilter(q, s.loc)
	visible := s.view.Visible(f)

	rows := make([]boardRow, len(visible))
	for i, rec := range visible {
		rows[i] = boardRow{
			ID:     string(rec.ID),
			Label:  rec.Label(),
			Date:   emitter.FormatDate(rec.FechaAlta, s.loc),
			Active: rec.Active,
		}
	}
	active, inactive := emitter.Counts(visible)

	user, _ := sessionFrom(r).Username()
	interval := s.schedule.Interval()

	return boardData{
		User:  user,
		Theme: themeFrom(r),
		Self:  "/dashboard?" + q.Encode(),
		Filter: filterForm{
			Query: f.Query,
			Start: q.Get("start"),
			End:   q.Get("end"),
		},
		Statuses:       statusOptions(f.Status),
		Rows:           rows,
		Loaded:         s.view.Version() > 0,
		Shown:          len(rows),
		ActiveCount:    active,
		InactiveCount:  inactive,
		RefreshMS:      interval.Milliseconds(),
		RefreshSeconds: int64(math.Round(interval.Seconds())),
	}
}

// parseFilter reads q, status, start and end. Unparseable values are
// treated as unset.
func parseFilter(q url.Values, loc *time.Location) emitter.Filter {
	f := emitter.Filter{Query: q.Get("q"), Loc: loc}
	if st, err := emitter.ParseStatus(q.Get("status")); err == nil {
		f.Status = st
	} else {
		f.Status = emitter.StatusAll
	}
	if d, err := emitter.ParseDate(q.Get("start")); err == nil {
		f.Start = d
	}
	if d, err := emitter.ParseDate(q.Get("end")); err == nil {
		f.End = d
	}
	return f
}

func statusOptions(selected emitter.Status) []statusOption {
	return []statusOption{
		{Value: string(emitter.StatusAll), Label: "All", Selected: selected == emitter.StatusAll},
		{Value: string(emitter.StatusActive), Label: "Active", Selected: selected == emitter.StatusActive},
		{Value: string(emitter.StatusInactive), Label: "Inactive", Selected: selected == emitter.StatusInactive},
	}
}

func parseRect(q url.Values) (popup.Rect, error) {
	var vals [4]float64
	for i, key := range []string{"x", "y", "w", "h"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return popup.Rect{}, errors.New("invalid " + key)
		}
		vals[i] = v
	}
	return popup.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// safeReturn only allows redirects back into the dashboard.
func safeReturn(next string) string {
	if strings.HasPrefix(next, "/dashboard") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/dashboard"
}

// clientIP extracts the client IP from the request, ignoring proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
