package dashboard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/febros/localesdash/internal/session"
)

const (
	sessionCookieName = "localesdash_session"
	themeCookieName   = "localesdash_theme"
	cookieMaxAge      = 30 * 24 * time.Hour

	// sessionKeyPrefix namespaces browser sessions in the shared store so
	// they never collide with the terminal client's key.
	sessionKeyPrefix = "web:"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Middleware protects dashboard routes. Requests without a restorable
// session are sent to the login page; HTMX requests get an HX-Redirect
// instead so the whole page navigates.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dashboard/login" {
			next.ServeHTTP(w, r)
			return
		}

		sess, ok := s.restore(r)
		if !ok {
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/dashboard/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/dashboard/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// restore rebuilds the browser's session from the durable store.
func (s *Server) restore(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || !validToken(cookie.Value) {
		return nil, false
	}
	sess := session.New(s.store, sessionKeyPrefix+cookie.Value)
	_, ok, err := sess.Restore(r.Context())
	if err != nil {
		s.logger.Error("session restore failed", "error", err)
		return nil, false
	}
	return sess, ok
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*session.Session)
	return sess
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/dashboard",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   false, // localhost only
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/dashboard",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1, // delete cookie
	})
}

// generateSessionToken returns a cryptographically random hex string.
func generateSessionToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func validToken(token string) bool {
	if len(token) != 64 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

func themeFrom(r *http.Request) string {
	if c, err := r.Cookie(themeCookieName); err == nil && c.Value == "light" {
		return "light"
	}
	return "dark"
}
