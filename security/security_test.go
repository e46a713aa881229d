package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"test12/internal/status"
)

func newEvent(req *http.Request) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 2)
	ctx := context.Background()

	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:10.0.0.1", time.Minute).SetVal(true)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(2)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(3)

	for i, want := range []bool{true, true, false} {
		allowed, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i+1)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisDownLetsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 0)
	assert.Equal(t, int64(DefaultRequestsPerMinute), rl.limit)

	mock.ExpectIncr("ratelimit:k").SetErr(errors.New("connection refused"))

	allowed, err := rl.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_MiddlewareRejects(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	mock.ExpectIncr("ratelimit:192.0.2.7").SetVal(5)

	e, rec := newEvent(req)
	require.NoError(t, rl.Middleware()(e))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_MiddlewareBlocksBots(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1)")

	e, rec := newEvent(req)
	require.NoError(t, rl.Middleware()(e))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientIP_IgnoresForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.3:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	e, _ := newEvent(req)
	assert.Equal(t, "198.51.100.3", clientIP(e))
}

func TestRateLimiter_SpoofedForwardedHeaderStillLimited(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 1)

	for _, fwd := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
		req.RemoteAddr = "192.0.2.50:4000"
		req.Header.Set("X-Forwarded-For", fwd)
		mock.ExpectIncr("ratelimit:192.0.2.50").SetVal(2)

		e, rec := newEvent(req)
		require.NoError(t, rl.Middleware()(e))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected bool
	}{
		{"Mozilla/5.0 (X11; Linux x86_64)", false},
		{"curl/8.0", false},
		{"SomeCrawler/1.0", true},
		{"python-scraper", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isSuspiciousUserAgent(tt.ua), tt.ua)
	}
}

func TestAdminAuth_PlainToken(t *testing.T) {
	a := NewAdminAuth("s3cret", "")
	assert.True(t, a.Enabled())
	assert.NoError(t, a.Check("s3cret"))
	assert.ErrorIs(t, a.Check("wrong"), status.ErrUnauthorized)
	assert.ErrorIs(t, a.Check(""), status.ErrUnauthorized)
}

func TestAdminAuth_HashPreferred(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-token"), bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAdminAuth("plain-token", string(hash))
	assert.NoError(t, a.Check("hashed-token"))
	assert.ErrorIs(t, a.Check("plain-token"), status.ErrUnauthorized)
}

func TestAdminAuth_Disabled(t *testing.T) {
	a := NewAdminAuth("", "")
	assert.False(t, a.Enabled())
	assert.ErrorIs(t, a.Check("anything"), status.ErrUnauthorized)
}

func TestAdminAuth_Middleware(t *testing.T) {
	a := NewAdminAuth("s3cret", "")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/state", nil)
	req.Header.Set(AdminTokenHeader, "nope")
	e, rec := newEvent(req)

	require.NoError(t, a.Middleware()(e))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"reason":"unauthorized"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/admin/state", nil)
	req.Header.Set(AdminTokenHeader, "s3cret")
	e, rec = newEvent(req)
	require.NoError(t, a.Middleware()(e))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
