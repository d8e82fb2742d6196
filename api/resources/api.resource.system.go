package resources

import (
	"net/http"

	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
)

// SystemHandlers serve health and API documentation
type SystemHandlers struct{}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": nuts.GetVersion(),
	})
}

// @Summary OpenAPI document
// @Tags system
// @Produce json
// @Router /swagger.json [get]
func (h *SystemHandlers) Swagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondWithError(w, errors.NewInternalError("api documentation unavailable", err).WithRequestID(nuts.NID("req", 12)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
