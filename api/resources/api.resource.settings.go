package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
)

// SettingsHandlers encapsulates the camera settings HTTP handlers
type SettingsHandlers struct {
	hubservice *hubservice.HubService
}

type settingsSaved struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// @Summary Get camera settings
// @Description Stored camera settings merged over the defaults
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]string
// @Router /settings/camera [get]
// @Security BearerAuth
func (h *SettingsHandlers) GetCameraSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	settings, err := h.hubservice.GetCameraSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "failed to load camera settings", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// @Summary Save camera settings
// @Description Admin only. Writes all five settings; omitted ones are reset to their defaults.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body models.CameraSettingsInput true "Settings"
// @Success 200 {object} settingsSaved
// @Failure 403 {object} errors.APIError
// @Router /settings/camera [post]
// @Security BearerAuth
func (h *SettingsHandlers) SaveCameraSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var in models.CameraSettingsInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	updated, err := h.hubservice.SaveCameraSettings(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		respondWithServiceError(w, err, "failed to save camera settings", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, settingsSaved{
		Success: true,
		Message: "Settings updated successfully",
		Updated: updated,
	})
}
