package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
	// DeviceKeyHeader carries the shared secret of the field device.
	DeviceKeyHeader = "X-Device-Key"
)

// AuthMiddleware authenticates dashboard sessions and the field device
type AuthMiddleware struct {
	verifier  auth.Verifier
	deviceKey string
}

// NewAuthMiddleware creates the middleware. An empty deviceKey leaves the
// device ingest routes open.
func NewAuthMiddleware(verifier auth.Verifier, deviceKey string) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, deviceKey: deviceKey}
}

// Authenticate validates the token and adds the identity to the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("authentication required", nil))
			return
		}

		identity, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			handleError(w, errors.AsAPIError(err, "invalid or expired session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// RequireRoles middleware ensures the caller holds one of the roles
func (m *AuthMiddleware) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.FromContext(r.Context())
			if identity == nil {
				handleError(w, errors.NewAuthError("authentication required", nil))
				return
			}

			if !hasRequiredRole(identity.Role, roles) {
				handleError(w, errors.NewAuthorizationError("insufficient permissions", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DeviceOrSession admits the field device by its key, or a dashboard
// session. Without a configured key the route is open.
func (m *AuthMiddleware) DeviceOrSession(next http.Handler) http.Handler {
	session := m.Authenticate(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.deviceKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if key := r.Header.Get(DeviceKeyHeader); key != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(m.deviceKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			handleError(w, errors.NewAuthError("invalid device key", nil))
			return
		}
		session.ServeHTTP(w, r)
	})
}

// Helper functions

// extractToken reads the bearer header, then the session cookie. Websocket
// upgrades may also pass ?token= since browsers cannot set headers there.
func extractToken(r *http.Request) string {
	if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

func hasRequiredRole(role models.Role, required []models.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

func handleError(w http.ResponseWriter, err *errors.APIError) {
	err.WithRequestID(nuts.NID("req", 12))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Warnf("[Auth] %s", err.Error())
}
