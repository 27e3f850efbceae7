// Package auth verifies operator credentials against the backend's user
// list. The list holds SHA-256 hex digests of each password; the entered
// password is hashed locally and compared.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// FailureMessage is the only text shown to an operator whose login failed,
// whatever the cause.
const FailureMessage = "Invalid username or password"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCredentialsUnavailable wraps a failure to fetch the user list.
	ErrCredentialsUnavailable = errors.New("credential list unavailable")
)

// Credential is one entry of the backend's user list.
type Credential struct {
	Nombre string `json:"nombre"`
	SHA256 string `json:"sha256"`
}

// UserSource fetches the full credential list.
type UserSource interface {
	Users(ctx context.Context) ([]Credential, error)
}

// Starter establishes a session once credentials check out.
type Starter interface {
	Login(ctx context.Context, username string) error
}

// HashPassword returns the lower-case hex SHA-256 of password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Authenticator checks username/password pairs. It keeps no state between
// attempts: no lockout, no counters.
type Authenticator struct {
	users    UserSource
	logger   *slog.Logger
	attempts *prometheus.CounterVec
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithRegisterer registers the login attempt counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Authenticator) {
		reg.MustRegister(a.attempts)
	}
}

// New returns an Authenticator backed by users.
func New(users UserSource, logger *slog.Logger, opts ...Option) *Authenticator {
	a := &Authenticator{
		users:  users,
		logger: logger,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "localesdash_login_attempts_total",
			Help: "Login attempts by result (success, failure, error).",
		}, []string{"result"}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Verify fetches the user list and checks the pair. It returns nil,
// ErrInvalidCredentials, or an error wrapping ErrCredentialsUnavailable.
func (a *Authenticator) Verify(ctx context.Context, username, password string) error {
	users, err := a.users.Users(ctx)
	if err != nil {
		a.attempts.WithLabelValues("error").Inc()
		a.logger.Warn("fetching users failed", "error", err)
		return fmt.Errorf("%w: %w", ErrCredentialsUnavailable, err)
	}

	computed := HashPassword(password)
	for _, u := range users {
		if u.Nombre != username {
			continue
		}
		stored := strings.ToLower(strings.TrimSpace(u.SHA256))
		if subtle.ConstantTimeCompare([]byte(stored), []byte(computed)) == 1 {
			a.attempts.WithLabelValues("success").Inc()
			return nil
		}
		break
	}

	a.attempts.WithLabelValues("failure").Inc()
	a.logger.Info("login failed", "user", username)
	return ErrInvalidCredentials
}

// Login verifies the pair and, on success, starts a session for username.
func (a *Authenticator) Login(ctx context.Context, s Starter, username, password string) error {
	if err := a.Verify(ctx, username, password); err != nil {
		return err
	}
	if err := s.Login(ctx, username); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	a.logger.Info("login success", "user", username)
	return nil
}
