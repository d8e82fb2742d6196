// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/stream"
)

// Options carries the HTTP-level settings the handlers need
type Options struct {
	CookieSecure  bool
	MaxUploadSize int64
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Alerts   *AlertHandlers
	Camera   *CameraHandlers
	Sensors  *SensorHandlers
	Settings *SettingsHandlers
	Robot    *RobotHandlers
	Auth     *AuthHandlers
	Stream   *StreamHandlers
	System   *SystemHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService, broker *stream.Broker, opts Options) *Resources {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 * 1024 * 1024
	}
	return &Resources{
		Alerts:   &AlertHandlers{hubservice: svc},
		Camera:   &CameraHandlers{hubservice: svc, maxUploadSize: opts.MaxUploadSize},
		Sensors:  &SensorHandlers{hubservice: svc},
		Settings: &SettingsHandlers{hubservice: svc},
		Robot:    &RobotHandlers{hubservice: svc},
		Auth:     &AuthHandlers{hubservice: svc, cookieSecure: opts.CookieSecure},
		Stream:   NewStreamHandlers(broker),
		System:   &SystemHandlers{},
	}
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeQuery fills dst from the URL query using its schema tags
func decodeQuery(r *http.Request, dst interface{}) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

func decodeJSON(r *http.Request, dst interface{}) *errors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

// parseRange turns from/to query values into a TimeRange
func parseRange(from, to string) (models.TimeRange, *errors.APIError) {
	var tr models.TimeRange
	var err error
	if tr.From, err = models.ParseTime(from); err != nil {
		return tr, errors.NewValidationError("invalid from date", err)
	}
	if tr.To, err = models.ParseTime(to); err != nil {
		return tr, errors.NewValidationError("invalid to date", err)
	}
	return tr, nil
}

// successResponse is the envelope used by mutating endpoints
type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
		return
	}
	nuts.L.Warnf("[API] %s", err.Error())
}

// respondWithServiceError classifies err and writes it
func respondWithServiceError(w http.ResponseWriter, err error, fallback, requestID string) {
	respondWithError(w, errors.AsAPIError(err, fallback).WithRequestID(requestID))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
