// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

const metricPrefix = "robowatch_"

// Ingest results
const (
	ResultStored   = "stored"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Service owns the hub's Prometheus registry and collectors
type Service struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	alertsCreated   *prometheus.CounterVec
	ingestMessages  *prometheus.CounterVec
	gatewayFailures *prometheus.CounterVec
	pruned          *prometheus.CounterVec
}

// NewService creates the collectors on a dedicated registry
func NewService() (*Service, error) {
	s := &Service{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "events_total",
			Help: "Hub events by name",
		}, []string{"event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_created_total",
			Help: "Anomaly alerts derived from captures by severity",
		}, []string{"severity"}),
		ingestMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "ingest_messages_total",
			Help: "Telemetry messages received over MQTT by result",
		}, []string{"result"}),
		gatewayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "gateway_failures_total",
			Help: "Failed device gateway calls by endpoint",
		}, []string{"endpoint"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "retention_pruned_total",
			Help: "Records removed by retention by kind",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.events, s.httpRequests, s.httpDuration, s.alertsCreated,
		s.ingestMessages, s.gatewayFailures, s.pruned,
	} {
		if err := s.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return s, nil
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.events.WithLabelValues(eventName).Inc()

	switch eventName {
	case "alert.created":
		s.alertsCreated.WithLabelValues(labels["severity"]).Inc()
	case "sensor_data.pruned", "camera_images.pruned", "frames.pruned":
		if n, err := strconv.Atoi(labels["count"]); err == nil {
			s.pruned.WithLabelValues(labels["kind"]).Add(float64(n))
		}
	}
}

// RecordIngest counts one MQTT telemetry message.
func (s *Service) RecordIngest(result string) {
	s.ingestMessages.WithLabelValues(result).Inc()
}

// RecordGatewayFailure counts one failed call to the device.
func (s *Service) RecordGatewayFailure(endpoint string) {
	s.gatewayFailures.WithLabelValues(endpoint).Inc()
}

// Registry exposes the registry, mainly for tests.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus text format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

// HTTPMiddleware is a mux middleware recording request counts and latency,
// labelled by route template so path parameters do not explode cardinality.
func (s *Service) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		if rec.status >= http.StatusInternalServerError {
			nuts.L.Warnf("[Monitoring] %s %s answered %d", r.Method, route, rec.status)
		}
	})
}
