package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/sessionguard/pkg/device"
	deviceapi "github.com/learnhub/sessionguard/pkg/device/api"
	"github.com/learnhub/sessionguard/pkg/deviceguard"
	"github.com/learnhub/sessionguard/pkg/login"
	loginapi "github.com/learnhub/sessionguard/pkg/login/api"
	"github.com/learnhub/sessionguard/pkg/sessions"
	sessionsapi "github.com/learnhub/sessionguard/pkg/sessions/api"
	"github.com/learnhub/sessionguard/pkg/tokengenerator"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type apiFixture struct {
	mux   *chi.Mux
	clock *fakeClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	const secret = "test-secret"

	accountRepo := login.NewInMemAccountRepository()
	loginService := login.NewService(accountRepo)
	ctx := context.Background()
	_, err := loginService.Register(ctx, "alice", "alice-pass", []string{"student"})
	require.NoError(t, err)
	_, err = loginService.Register(ctx, "root", "root-pass", []string{"admin"})
	require.NoError(t, err)

	clock := &fakeClock{current: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)}
	sessionRepo := sessions.NewInMemRepository()
	deviceRepo := device.NewInMemRepository()
	sessionService := sessions.NewService(sessionRepo, sessions.WithClock(clock.Now))
	guard := deviceguard.NewService(sessionRepo, deviceRepo, deviceguard.DefaultConfig(), deviceguard.WithClock(clock.Now))
	tokenGenerator := tokengenerator.NewJwtTokenGenerator(secret, "sessionguard-test", "learnhub")

	loginHandle := loginapi.NewHandle(loginService, sessionService, guard, tokenGenerator, time.Hour, []string{"admin"})

	mux := New(Config{
		LoginHandle:    loginHandle,
		SessionHandle:  sessionsapi.NewHandler(sessionService),
		DeviceHandle:   deviceapi.NewHandler(deviceRepo),
		SessionService: sessionService,
		JwtAuth:        jwtauth.New("HS256", []byte(secret), nil),
		ExemptRoles:    []string{"admin"},
	})

	return &apiFixture{mux: mux, clock: clock}
}

func (f *apiFixture) login(t *testing.T, username, password, fingerprint string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36")
	r.Header.Set(device.FingerprintHeader, fingerprint)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, r)
	return rec
}

func (f *apiFixture) loginToken(t *testing.T, username, password, fingerprint string) string {
	t.Helper()
	rec := f.login(t, username, password, fingerprint)
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	var response loginapi.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.NotEmpty(t, response.AccessToken)
	return response.AccessToken
}

func (f *apiFixture) get(path, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, r)
	return rec
}

func (f *apiFixture) post(path, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, r)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body loginapi.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestRouter_LoginAndAccess(t *testing.T) {
	f := newAPIFixture(t)

	token := f.loginToken(t, "alice", "alice-pass", "client-fp-1")

	rec := f.get("/api/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/api/me/sessions", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/api/me/devices", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_InvalidCredentials(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.login(t, "alice", "wrong-pass", "client-fp-1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestRouter_RevocationPropagates(t *testing.T) {
	f := newAPIFixture(t)

	first := f.loginToken(t, "alice", "alice-pass", "client-fp-1")
	f.clock.Advance(10 * time.Minute)
	second := f.loginToken(t, "alice", "alice-pass", "client-fp-1")

	// The old token still verifies cryptographically but its session is gone
	rec := f.get("/api/me", first)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_REVOKED", errorCode(t, rec))

	rec = f.get("/api/me", second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SwitchCooldownOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	_ = f.loginToken(t, "alice", "alice-pass", "client-fp-1")

	f.clock.Advance(time.Hour)
	rec := f.login(t, "alice", "alice-pass", "client-fp-2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "DEVICE_SWITCH_COOLDOWN", errorCode(t, rec))
}

func TestRouter_MonthlyDeviceCapOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	_ = f.loginToken(t, "alice", "alice-pass", "client-fp-1")
	f.clock.Advance(5 * time.Hour)
	_ = f.loginToken(t, "alice", "alice-pass", "client-fp-2")
	f.clock.Advance(5 * time.Hour)

	rec := f.login(t, "alice", "alice-pass", "client-fp-3")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "MAX_DEVICES_REACHED", errorCode(t, rec))
}

func TestRouter_LogoutIdempotent(t *testing.T) {
	f := newAPIFixture(t)

	token := f.loginToken(t, "alice", "alice-pass", "client-fp-1")

	rec := f.post("/api/auth/logout", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Logging out again with the same token still succeeds
	rec = f.post("/api/auth/logout", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/api/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_REVOKED", errorCode(t, rec))
}

func TestRouter_ExemptRole(t *testing.T) {
	f := newAPIFixture(t)

	// Three devices back to back, past the cap and inside the cooldown
	first := f.loginToken(t, "root", "root-pass", "client-fp-1")
	f.clock.Advance(time.Minute)
	_ = f.loginToken(t, "root", "root-pass", "client-fp-2")
	f.clock.Advance(time.Minute)
	_ = f.loginToken(t, "root", "root-pass", "client-fp-3")

	// Earlier sessions stay usable
	rec := f.get("/api/me", first)
	assert.Equal(t, http.StatusOK, rec.Code)
}
