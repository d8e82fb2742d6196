package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEvent(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	s.RecordEvent("alert.created", map[string]string{"severity": "HIGH"})
	s.RecordEvent("alert.created", map[string]string{"severity": "MEDIUM"})
	s.RecordEvent("camera_images.pruned", map[string]string{"kind": "camera_images", "count": "7"})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.events.WithLabelValues("alert.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.alertsCreated.WithLabelValues("HIGH")))
	assert.Equal(t, 7.0, testutil.ToFloat64(s.pruned.WithLabelValues("camera_images")))
}

func TestRecordIngestAndGateway(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	s.RecordIngest(ResultStored)
	s.RecordIngest(ResultRejected)
	s.RecordIngest(ResultStored)
	s.RecordGatewayFailure("gps")

	assert.Equal(t, 2.0, testutil.ToFloat64(s.ingestMessages.WithLabelValues(ResultStored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.gatewayFailures.WithLabelValues("gps")))
}

func TestHTTPMiddlewareUsesRouteTemplate(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(s.HTTPMiddleware)
	r.HandleFunc("/frames/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"a.jpg", "b.jpg"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frames/"+name, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(s.httpRequests.WithLabelValues("/frames/{name}", http.MethodGet, "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)
	s.RecordEvent("capture.recorded", nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `robowatch_events_total{event="capture.recorded"} 1`)
}
