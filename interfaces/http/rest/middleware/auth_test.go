package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recruiter-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.calls++
	return l.allowed, l.err
}

func (l *stubLimiter) Reset(ctx context.Context, key string) error { return nil }

const testSecret = "test-secret"

func issueToken(t *testing.T, userID string) string {
	t.Helper()
	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  testSecret,
		ExpiryTime: time.Hour,
	})
	require.NoError(t, err)
	token, err := generator.GenerateToken(userID, userID+"@example.com", []string{"recruiter"})
	require.NoError(t, err)
	return token
}

func newAuthHandler(t *testing.T, ip, user auth.RateLimiter) http.Handler {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := auth.GetUserFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-Test-User", u.UserID)
		w.WriteHeader(http.StatusOK)
	})
	return Authenticate(validator, ip, user, zap.NewNop())(next)
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	handler := newAuthHandler(t, &stubLimiter{allowed: true}, &stubLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/entities", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Header().Get("X-Test-User"))
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	handler := newAuthHandler(t, &stubLimiter{allowed: true}, &stubLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/entities", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateThrottlesWhenLimiterDenies(t *testing.T) {
	handler := newAuthHandler(t, &stubLimiter{allowed: false}, &stubLimiter{allowed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/entities", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthenticateThrottlesOnUserLimit(t *testing.T) {
	userLimiter := &stubLimiter{allowed: false}
	handler := newAuthHandler(t, &stubLimiter{allowed: true}, userLimiter)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/entities", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, userLimiter.calls)
}

func TestAuthenticateHonorsFailOpenLimiter(t *testing.T) {
	// A limiter that cannot reach its counter reports the failure but lets
	// the request through; the middleware must not turn that into an outage
	ip := &stubLimiter{allowed: true, err: errors.New("counter table unavailable")}
	user := &stubLimiter{allowed: true, err: errors.New("counter table unavailable")}
	handler := newAuthHandler(t, ip, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/entities", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
