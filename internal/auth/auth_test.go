package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUsers struct {
	users []Credential
	err   error
	calls int
}

func (s *staticUsers) Users(context.Context) ([]Credential, error) {
	s.calls++
	return s.users, s.err
}

type recordingStarter struct {
	logged []string
	err    error
}

func (r *recordingStarter) Login(_ context.Context, username string) error {
	if r.err != nil {
		return r.err
	}
	r.logged = append(r.logged, username)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHashPassword(t *testing.T) {
	// sha256("secret")
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", HashPassword("secret"))
}

func TestVerify(t *testing.T) {
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: HashPassword("pw")}}}
	a := New(src, discard())
	ctx := context.Background()

	assert.NoError(t, a.Verify(ctx, "ana", "pw"))

	wrongPw := a.Verify(ctx, "ana", "wrongpw")
	unknown := a.Verify(ctx, "bob", "pw")
	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error(), "failure causes must be indistinguishable")

	assert.Equal(t, 3, src.calls, "the list is fetched on every attempt")
}

func TestVerify_UsernameIsExactMatch(t *testing.T) {
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: HashPassword("pw")}}}
	a := New(src, discard())

	assert.ErrorIs(t, a.Verify(context.Background(), "Ana", "pw"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.Verify(context.Background(), " ana", "pw"), ErrInvalidCredentials)
}

func TestVerify_StoredHashIsCaseInsensitive(t *testing.T) {
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: strings.ToUpper(HashPassword("pw")) + "\n"}}}
	assert.NoError(t, New(src, discard()).Verify(context.Background(), "ana", "pw"))
}

func TestVerify_FirstMatchingUserWins(t *testing.T) {
	src := &staticUsers{users: []Credential{
		{Nombre: "ana", SHA256: HashPassword("old")},
		{Nombre: "ana", SHA256: HashPassword("new")},
	}}
	a := New(src, discard())
	assert.NoError(t, a.Verify(context.Background(), "ana", "old"))
	assert.ErrorIs(t, a.Verify(context.Background(), "ana", "new"), ErrInvalidCredentials)
}

func TestVerify_FetchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	a := New(&staticUsers{err: boom}, discard())

	err := a.Verify(context.Background(), "ana", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_StartsSessionOnlyOnSuccess(t *testing.T) {
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: HashPassword("pw")}}}
	a := New(src, discard())
	s := &recordingStarter{}
	ctx := context.Background()

	require.ErrorIs(t, a.Login(ctx, s, "ana", "nope"), ErrInvalidCredentials)
	assert.Empty(t, s.logged)

	require.NoError(t, a.Login(ctx, s, "ana", "pw"))
	assert.Equal(t, []string{"ana"}, s.logged)
}

func TestLogin_SessionError(t *testing.T) {
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: HashPassword("pw")}}}
	err := New(src, discard()).Login(context.Background(), &recordingStarter{err: errors.New("disk full")}, "ana", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting session")
}

func TestAttemptsMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &staticUsers{users: []Credential{{Nombre: "ana", SHA256: HashPassword("pw")}}}
	a := New(src, discard(), WithRegisterer(reg))
	ctx := context.Background()

	_ = a.Verify(ctx, "ana", "pw")
	_ = a.Verify(ctx, "ana", "x")
	_ = a.Verify(ctx, "bob", "x")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.attempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.attempts.WithLabelValues("failure")))
}
