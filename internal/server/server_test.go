package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/server/api"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/goodtune/gameshelf/internal/storage/bolt"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, cfg Config) (*Server, storage.Store) {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "gameshelf.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = testSecret
	}
	svc := collection.NewService(store.Games(), collection.Options{
		Clock:    &collection.FixedClock{CurrentTime: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)},
		Location: time.UTC,
		Logger:   zerolog.Nop(),
	})
	srv := NewServer(cfg, store.Users(), svc, zerolog.Nop())
	t.Cleanup(srv.rateLimiter.Stop)
	return srv, store
}

func request(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, username, password string) LoginResponse {
	t.Helper()

	rec := request(t, h, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := request(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"today":"2024-03-05"`)
}

func TestAPIRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := request(t, srv.Handler(), http.MethodGet, "/api/games", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, body.Code)
	assert.Equal(t, "Missing credentials", body.Message)

	rec = request(t, srv.Handler(), http.MethodGet, "/api/games", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterIsOffByDefault(t *testing.T) {
	srv, store := newTestServer(t, Config{})

	rec := request(t, srv.Handler(), http.MethodPost, "/api/auth/register", "", LoginRequest{Username: "carol", Password: "long-enough"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := store.Users().Get(context.Background(), "carol")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegisterCreatesAndSignsIn(t *testing.T) {
	srv, store := newTestServer(t, Config{AllowRegistration: true})
	h := srv.Handler()

	rec := request(t, h, http.MethodPost, "/api/auth/register", "", LoginRequest{Username: "carol", Password: "long-enough"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "carol", resp.User.Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TokenCookie, cookies[0].Name)

	user, err := store.Users().Get(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	rec = request(t, h, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"carol"`)

	login(t, h, "carol", "long-enough")

	rec = request(t, h, http.MethodPost, "/api/auth/register", "", LoginRequest{Username: "carol", Password: "another-one"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = request(t, h, http.MethodPost, "/api/auth/register", "", LoginRequest{Username: "dave", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, h, http.MethodPost, "/api/auth/register", "", LoginRequest{Username: "  ", Password: "long-enough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginScopesCollectionsByUser(t *testing.T) {
	srv, store := newTestServer(t, Config{})
	ctx := context.Background()

	alice, err := CreateUser(ctx, store.Users(), "alice", "correct-horse")
	require.NoError(t, err)
	_, err = CreateUser(ctx, store.Users(), "bob", "battery-staple")
	require.NoError(t, err)

	aliceLogin := login(t, srv.Handler(), "alice", "correct-horse")
	assert.Equal(t, alice.ID, aliceLogin.User.ID)
	bobLogin := login(t, srv.Handler(), "bob", "battery-staple")

	rec := request(t, srv.Handler(), http.MethodPost, "/api/games", aliceLogin.Token, map[string]string{"name": "Azul"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = request(t, srv.Handler(), http.MethodGet, "/api/games", bobLogin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	rec = request(t, srv.Handler(), http.MethodGet, "/api/games", aliceLogin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	user, err := store.Users().Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, store := newTestServer(t, Config{})
	_, err := CreateUser(context.Background(), store.Users(), "alice", "correct-horse")
	require.NoError(t, err)

	rec := request(t, srv.Handler(), http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice", Password: "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, srv.Handler(), http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "nobody", Password: "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, srv.Handler(), http.MethodPost, "/api/auth/login", "", LoginRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCookieAuthAndMe(t *testing.T) {
	srv, store := newTestServer(t, Config{})
	_, err := CreateUser(context.Background(), store.Users(), "alice", "correct-horse")
	require.NoError(t, err)

	rec := request(t, srv.Handler(), http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me UserInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
}

func TestChangePassword(t *testing.T) {
	srv, store := newTestServer(t, Config{})
	_, err := CreateUser(context.Background(), store.Users(), "alice", "correct-horse")
	require.NoError(t, err)
	token := login(t, srv.Handler(), "alice", "correct-horse").Token

	rec := request(t, srv.Handler(), http.MethodPost, "/api/auth/change-password", token,
		ChangePasswordRequest{OldPassword: "correct-horse", NewPassword: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, srv.Handler(), http.MethodPost, "/api/auth/change-password", token,
		ChangePasswordRequest{OldPassword: "wrong-horse", NewPassword: "new-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, srv.Handler(), http.MethodPost, "/api/auth/change-password", token,
		ChangePasswordRequest{OldPassword: "correct-horse", NewPassword: "new-password"})
	require.Equal(t, http.StatusOK, rec.Code)

	login(t, srv.Handler(), "alice", "new-password")
}

func TestTokenExpiry(t *testing.T) {
	store, err := bolt.Open(filepath.Join(t.TempDir(), "gameshelf.bolt"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	auth := NewAuthService(store.Users(), testSecret, time.Hour, zerolog.Nop())
	issued := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }

	token, expiresAt, err := auth.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour), expiresAt)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	auth.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(store.Users(), "other-secret", time.Hour, zerolog.Nop())
	other.now = func() time.Time { return issued }
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Config{RateLimit: 2, RateLimitWindow: time.Hour})

	for i := 0; i < 2; i++ {
		rec := request(t, srv.Handler(), http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := request(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, Config{AllowedOrigins: []string{"https://shelf.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://shelf.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shelf.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEnsureInitialUser(t *testing.T) {
	store, err := bolt.Open(filepath.Join(t.TempDir(), "gameshelf.bolt"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	assert.Error(t, EnsureInitialUser(ctx, store.Users(), "admin", "", zerolog.Nop()))

	require.NoError(t, EnsureInitialUser(ctx, store.Users(), "", "initial-pass", zerolog.Nop()))
	user, err := store.Users().Get(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("initial-pass", user.PasswordHash))

	// A second call leaves the existing users alone.
	require.NoError(t, EnsureInitialUser(ctx, store.Users(), "other", "other-pass", zerolog.Nop()))
	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = CreateUser(ctx, store.Users(), "admin", "another-pass")
	assert.ErrorIs(t, err, ErrUserExists)
}
