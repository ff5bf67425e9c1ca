package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reminders/internal/auth"
	"reminders/internal/lifecycle"
	"reminders/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downStore fails every call as if the database were unreachable
type downStore struct{}

var errDown = lifecycle.Unavailable("test", errors.New("connection refused"))

func (downStore) Ping(context.Context) error { return errDown }
func (downStore) Create(context.Context, *models.Reminder) error { return errDown }
func (downStore) Get(context.Context, uint) (*models.Reminder, error) { return nil, errDown }
func (downStore) List(context.Context, models.ReminderStatus) ([]models.Reminder, error) {
	return nil, errDown
}
func (downStore) Complete(context.Context, uint) (*models.Reminder, bool, error) {
	return nil, false, errDown
}
func (downStore) Events(context.Context, uint) ([]models.ReminderEvent, error) {
	return nil, errDown
}

func newTestHandler(t *testing.T, store ReminderStore, burst int) (*Handler, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)
	creds, err := auth.NewCredentials("admin", "", "1234")
	require.NoError(t, err)
	return New(Options{
		Store:       store,
		Tokens:      tokens,
		Credentials: creds,
		Location:    time.UTC,
		Driver:      "postgres",
		LoginRate:   0.001,
		LoginBurst:  burst,
		Log:         zerolog.New(io.Discard),
	}), tokens
}

func serve(h gin.HandlerFunc, method, route, target, body, token string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	h, tokens := newTestHandler(t, downStore{}, 5)
	token, _, err := tokens.GenerateToken("admin")
	require.NoError(t, err)

	cases := []struct {
		name    string
		handler gin.HandlerFunc
		method  string
		route   string
		target  string
		body    string
	}{
		{"list", h.ListReminders, http.MethodGet, "/reminders", "/reminders", ""},
		{"get", h.GetReminder, http.MethodGet, "/reminders/:id", "/reminders/1", ""},
		{"complete", h.CompleteReminder, http.MethodPut, "/reminders/:id/complete", "/reminders/1/complete", ""},
		{"create", h.CreateReminder, http.MethodPost, "/reminders", "/reminders", `{"title":"x","trigger_time":"2025-01-01T00:00:00"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(tc.handler, tc.method, tc.route, tc.target, tc.body, token)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, `{"error":"reminder store unavailable"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "connection refused", "internals must not leak")
		})
	}
}

func TestHealthDegraded(t *testing.T) {
	h, _ := newTestHandler(t, downStore{}, 5)
	rec := serve(h.Health, http.MethodGet, "/health", "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","db":"unavailable"}`, rec.Body.String())
}

func TestCreateChecksTokenWithoutMiddleware(t *testing.T) {
	h, _ := newTestHandler(t, downStore{}, 5)
	rec := serve(h.CreateReminder, http.MethodPost, "/reminders", "/reminders", `{"title":"x","trigger_time":"2025-01-01T00:00:00"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h, _ := newTestHandler(t, downStore{}, 2)
	body := `{"username":"admin","password":"wrong"}`

	for i := 0; i < 2; i++ {
		rec := serve(h.Login, http.MethodPost, "/login", "/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := serve(h.Login, http.MethodPost, "/login", "/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginRateLimitIgnoresSpoofedForwardingHeaders(t *testing.T) {
	h, _ := newTestHandler(t, downStore{}, 2)
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/login", h.Login)

	codes := map[int]int{}
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes[rec.Code]++
	}

	assert.Equal(t, 2, codes[http.StatusUnauthorized])
	assert.Equal(t, 18, codes[http.StatusTooManyRequests])
}

func TestReminderID(t *testing.T) {
	for param, want := range map[string]bool{"1": true, "42": true, "0": false, "-1": false, "x": false, "": false} {
		gin.SetMode(gin.TestMode)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: param}}
		_, ok := reminderID(c)
		assert.Equal(t, want, ok, "param %q", param)
	}
}
