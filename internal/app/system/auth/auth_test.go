package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-must-be-at-least-32-bytes!!"

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager(testSecret, "studytrack-test", time.Hour)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// echoUser reports the authenticated user id, or "anonymous".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok {
			_, _ = w.Write([]byte(u.ID))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := newTokens()

	raw, claims, err := tm.Issue("507f1f77bcf86cd799439011", "ann@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "507f1f77bcf86cd799439011", parsed.UserID)
	assert.Equal(t, "ann@example.com", parsed.Email)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestTokenManager_UniqueIDs(t *testing.T) {
	tm := newTokens()
	_, a, err := tm.Issue("u1", "a@example.com")
	require.NoError(t, err)
	_, b, err := tm.Issue("u1", "a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := newTokens()
	raw, _, err := tm.Issue("u1", "a@example.com")
	require.NoError(t, err)

	other := auth.NewTokenManager("another-secret-that-is-32-bytes-long", "studytrack-test", time.Hour)
	wrongIssuer := auth.NewTokenManager(testSecret, "someone-else", time.Hour)
	expired := auth.NewTokenManager(testSecret, "studytrack-test", -time.Minute)
	expiredRaw, _, err := expired.Issue("u1", "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name string
		tm   *auth.TokenManager
		raw  string
	}{
		{"garbage", tm, "not.a.token"},
		{"wrong secret", other, raw},
		{"wrong issuer", wrongIssuer, raw},
		{"expired", tm, expiredRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tm.Parse(tt.raw)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestRedisRevoker(t *testing.T) {
	mr, client := newRedis(t)
	rv := auth.NewRedisRevoker(client)
	ctx := context.Background()

	revoked, err := rv.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rv.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = rv.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = rv.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token")

	require.NoError(t, rv.Revoke(ctx, "jti-2", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists("revoked:jti-2"), "expired tokens need no entry")
}

func TestAuthenticate(t *testing.T) {
	_, client := newRedis(t)
	tm := newTokens()
	rv := auth.NewRedisRevoker(client)
	mw := auth.NewMiddleware(tm, rv, zap.NewNop())
	h := mw.Authenticate(echoUser())

	raw, claims, err := tm.Issue("507f1f77bcf86cd799439011", "ann@example.com")
	require.NoError(t, err)

	do := func(header string) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	assert.Equal(t, "anonymous", do(""))
	assert.Equal(t, "anonymous", do("Bearer nonsense"))
	assert.Equal(t, "anonymous", do("Basic abc"))
	assert.Equal(t, "507f1f77bcf86cd799439011", do("Bearer "+raw))
	assert.Equal(t, "507f1f77bcf86cd799439011", do("bearer "+raw))

	require.NoError(t, rv.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, "anonymous", do("Bearer "+raw))
}

func TestAuthenticate_RevokerDownAcceptsToken(t *testing.T) {
	mr, client := newRedis(t)
	tm := newTokens()
	h := auth.NewMiddleware(tm, auth.NewRedisRevoker(client), zap.NewNop()).Authenticate(echoUser())

	raw, _, err := tm.Issue("u1", "a@example.com")
	require.NoError(t, err)
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestRequireSignedIn(t *testing.T) {
	h := auth.RequireSignedIn(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "UNAUTHORIZED", body.Error)

	rec = httptest.NewRecorder()
	req := auth.WithUser(httptest.NewRequest(http.MethodGet, "/", nil), &auth.User{ID: "u1"})
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestNilRevokerDefaultsToNop(t *testing.T) {
	mw := auth.NewMiddleware(newTokens(), nil, zap.NewNop())
	_, isNop := mw.Revoker.(auth.NopRevoker)
	assert.True(t, isNop)
}
