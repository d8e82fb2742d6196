package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/models"
)

func newTokens(t *testing.T) (*auth.TokenService, string, string) {
	t.Helper()
	tokens := auth.NewTokenService("0123456789abcdef", time.Hour)
	adminToken, _, err := tokens.Issue(&models.User{ID: "usr_admin", Email: "a@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	userToken, _, err := tokens.Issue(&models.User{ID: "usr_user", Email: "u@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	return tokens, adminToken, userToken
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id != nil {
		w.Header().Set("X-User", id.UserID)
	}
	w.WriteHeader(http.StatusOK)
})

func TestAuthenticate(t *testing.T) {
	tokens, adminToken, _ := newTokens(t)
	m := NewAuthMiddleware(tokens, "")
	h := m.Authenticate(okHandler)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		user   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken) }, http.StatusOK, "usr_admin"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: adminToken}) }, http.StatusOK, "usr_admin"},
		{"query without upgrade", func(r *http.Request) { r.URL.RawQuery = "token=" + adminToken }, http.StatusUnauthorized, ""},
		{"query on websocket upgrade", func(r *http.Request) {
			r.URL.RawQuery = "token=" + adminToken
			r.Header.Set("Upgrade", "websocket")
		}, http.StatusOK, "usr_admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.user, rec.Header().Get("X-User"))
			if tt.status == http.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
				assert.NotContains(t, body, "data")
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tokens, adminToken, userToken := newTokens(t)
	m := NewAuthMiddleware(tokens, "")
	h := m.Authenticate(m.RequireRoles(models.RoleAdmin)(okHandler))

	for token, want := range map[string]int{adminToken: http.StatusOK, userToken: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestDeviceOrSession(t *testing.T) {
	tokens, _, userToken := newTokens(t)

	open := NewAuthMiddleware(tokens, "").DeviceOrSession(okHandler)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	keyed := NewAuthMiddleware(tokens, "device-secret").DeviceOrSession(okHandler)
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"nothing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong key", func(r *http.Request) { r.Header.Set(DeviceKeyHeader, "guess") }, http.StatusUnauthorized},
		{"device key", func(r *http.Request) { r.Header.Set(DeviceKeyHeader, "device-secret") }, http.StatusOK},
		{"session", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+userToken) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			keyed.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
