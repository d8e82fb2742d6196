package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/hubservice"
)

// RobotHandlers relay live snapshots from the field device
type RobotHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Live camera frame
// @Description Relay the device's current camera payload unchanged
// @Tags robot
// @Produce json
// @Success 200 {object} models.CameraSnapshot
// @Failure 500 {object} errors.APIError
// @Router /robot/camera [get]
// @Security BearerAuth
func (h *RobotHandlers) Camera(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	payload, err := h.hubservice.RobotCamera(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch camera data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, payload)
}

// @Summary Live GPS fix
// @Description Relay the device's current GPS payload unchanged
// @Tags robot
// @Produce json
// @Success 200 {object} models.GPSResponse
// @Failure 500 {object} errors.APIError
// @Router /robot/gps [get]
// @Security BearerAuth
func (h *RobotHandlers) GPS(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	payload, err := h.hubservice.RobotGPS(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch GPS data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, payload)
}
