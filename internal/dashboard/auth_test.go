package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	tok := generateSessionToken()
	if !validToken(tok) {
		t.Errorf("generated token %q is not valid", tok)
	}
	if tok == generateSessionToken() {
		t.Error("tokens should be unique")
	}
}

func TestValidToken(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"", false},
		{"abc", false},
		{"zz" + generateSessionToken()[2:], false},
		{generateSessionToken(), true},
	}
	for _, c := range cases {
		if got := validToken(c.token); got != c.want {
			t.Errorf("validToken(%q) = %v, want %v", c.token, got, c.want)
		}
	}
}

func TestMiddleware_RedirectsWithoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
}

func TestMiddleware_RejectsUnknownToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: generateSessionToken()})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
}

func TestMiddleware_AllowsLoginPage(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
