package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/api/middleware"
	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/hubservice"
)

// AuthHandlers encapsulates login and session handlers
type AuthHandlers struct {
	hubservice   *hubservice.HubService
	cookieSecure bool
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Log in
// @Description Exchange email and password for a session token. The token is also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Credentials"
// @Success 200 {object} hubservice.LoginResult
// @Failure 401 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "login failed", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Log out
// @Description Clear the session cookie
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Current session
// @Description The identity behind the presented token
// @Tags auth
// @Produce json
// @Success 200 {object} auth.Identity
// @Failure 401 {object} errors.APIError
// @Router /auth/session [get]
// @Security BearerAuth
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		respondWithError(w, errors.NewAuthError("not authenticated", nil).WithRequestID(nuts.NID("req", 12)))
		return
	}
	respondWithJSON(w, http.StatusOK, identity)
}
