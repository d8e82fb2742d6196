package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
)

// AlertHandlers encapsulates the anomaly alert HTTP handlers
type AlertHandlers struct {
	hubservice *hubservice.HubService
}

type alertQuery struct {
	Status   string `schema:"status"`
	Severity string `schema:"severity"`
	Limit    string `schema:"limit"`
	From     string `schema:"from"`
	To       string `schema:"to"`
}

// @Summary List anomaly alerts
// @Description List alerts newest first, with related images and assignee
// @Tags anomalies
// @Produce json
// @Param status query string false "NEW, ACKNOWLEDGED, IN_PROGRESS, RESOLVED or FALSE_ALARM"
// @Param severity query string false "LOW, MEDIUM, HIGH or CRITICAL"
// @Param limit query int false "Maximum results (default 100, capped at 1000)"
// @Param from query string false "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Created at or before (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} models.AnomalyAlert
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /anomalies [get]
// @Security BearerAuth
func (h *AlertHandlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q alertQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	tr, apiErr := parseRange(q.From, q.To)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	alerts, err := h.hubservice.ListAlerts(r.Context(), models.AlertFilters{
		Status:    models.AlertStatus(q.Status),
		Severity:  models.Severity(q.Severity),
		TimeRange: tr,
		Limit:     models.ClampLimit(q.Limit, models.DefaultAlertLimit, models.MaxAlertLimit),
	})
	if err != nil {
		respondWithServiceError(w, err, "failed to list alerts", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, alerts)
}

// @Summary Update an anomaly alert
// @Description Change status and/or assignee. RESOLVED stamps resolvedAt.
// @Tags anomalies
// @Accept json
// @Produce json
// @Param update body models.AlertUpdate true "Alert id with the fields to change"
// @Success 200 {object} successResponse
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /anomalies [patch]
// @Security BearerAuth
func (h *AlertHandlers) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var update models.AlertUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	alert, err := h.hubservice.UpdateAlert(r.Context(), update)
	if err != nil {
		respondWithServiceError(w, err, "failed to update alert", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{Success: true, Data: alert})
}
