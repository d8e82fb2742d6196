package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
}

type sensorQuery struct {
	Type  string `schema:"type"`
	Limit string `schema:"limit"`
	From  string `schema:"from"`
	To    string `schema:"to"`
}

type aggregateQuery struct {
	Type     string `schema:"type"`
	Interval string `schema:"interval"`
	From     string `schema:"from"`
	To       string `schema:"to"`
}

// @Summary List sensor readings
// @Description List readings newest first
// @Tags sensors
// @Produce json
// @Param type query string false "Sensor type"
// @Param limit query int false "Maximum results (default 100, capped at 1000)"
// @Param from query string false "Recorded at or after"
// @Param to query string false "Recorded at or before"
// @Success 200 {array} models.SensorData
// @Failure 400 {object} errors.APIError
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q sensorQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	tr, apiErr := parseRange(q.From, q.To)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	readings, err := h.hubservice.ListSensorData(r.Context(), models.SensorFilters{
		Type:      q.Type,
		TimeRange: tr,
		Limit:     models.ClampLimit(q.Limit, models.DefaultSensorLimit, models.MaxSensorLimit),
	})
	if err != nil {
		respondWithServiceError(w, err, "failed to list sensor data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Record a sensor reading
// @Description Record one reading from the field device; the timestamp is set by the server
// @Tags sensors
// @Accept json
// @Produce json
// @Param reading body models.SensorDataInput true "Reading"
// @Success 200 {object} successResponse
// @Failure 400 {object} errors.APIError
// @Router /sensors [post]
// @Security DeviceKey
func (h *SensorHandlers) RecordReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var in models.SensorDataInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	in.Timestamp = nil

	reading, err := h.hubservice.RecordSensorData(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, err, "failed to record sensor data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{Success: true, Data: reading})
}

// @Summary Aggregate sensor readings
// @Description Min, max, average and count per hour or day for one sensor type
// @Tags sensors
// @Produce json
// @Param type query string true "Sensor type"
// @Param interval query string false "hour (default) or day"
// @Param from query string false "Bucket start at or after"
// @Param to query string false "Bucket start at or before"
// @Success 200 {array} models.SensorAggregate
// @Failure 400 {object} errors.APIError
// @Router /sensors/aggregates [get]
// @Security BearerAuth
func (h *SensorHandlers) Aggregates(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q aggregateQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	tr, apiErr := parseRange(q.From, q.To)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	aggregates, err := h.hubservice.SensorAggregates(r.Context(), q.Type, q.Interval, tr)
	if err != nil {
		respondWithServiceError(w, err, "failed to aggregate sensor data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, aggregates)
}
