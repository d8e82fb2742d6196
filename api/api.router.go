package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robowatch/hub/api/middleware"
	"github.com/robowatch/hub/api/resources"
	_ "github.com/robowatch/hub/docs"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/monitoring"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.AuthMiddleware
	resources *resources.Resources
	metrics   *monitoring.Service
}

// NewRouter wires all routes. metrics may be nil.
func NewRouter(res *resources.Resources, auth *middleware.AuthMiddleware, metrics *monitoring.Service) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      auth,
		resources: res,
		metrics:   metrics,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	if r.metrics != nil {
		r.router.Use(r.metrics.HTTPMiddleware)
		r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)
	}

	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.System.Health).Methods(http.MethodGet)
	api.HandleFunc("/swagger.json", r.resources.System.Swagger).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", r.resources.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", r.resources.Auth.Logout).Methods(http.MethodPost)

	// Device ingest accepts the device key or a session
	api.Handle("/sensors", r.auth.DeviceOrSession(http.HandlerFunc(r.resources.Sensors.RecordReading))).Methods(http.MethodPost)
	api.Handle("/camera/frames", r.auth.DeviceOrSession(http.HandlerFunc(r.resources.Camera.UploadFrame))).Methods(http.MethodPost)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	protected.HandleFunc("/auth/session", r.resources.Auth.Session).Methods(http.MethodGet)

	// Anomaly alerts
	protected.HandleFunc("/anomalies", r.resources.Alerts.ListAlerts).Methods(http.MethodGet)
	protected.HandleFunc("/anomalies", r.resources.Alerts.UpdateAlert).Methods(http.MethodPatch)

	// Camera
	camera := protected.PathPrefix("/camera").Subrouter()
	camera.HandleFunc("", r.resources.Camera.ListImages).Methods(http.MethodGet)
	camera.HandleFunc("", r.resources.Camera.GetImage).Methods(http.MethodPost)
	camera.HandleFunc("/capture", r.resources.Camera.Capture).Methods(http.MethodPost)
	camera.HandleFunc("/frames/{path:.+}", r.resources.Camera.ServeFrame).Methods(http.MethodGet)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListReadings).Methods(http.MethodGet)
	sensors.HandleFunc("/aggregates", r.resources.Sensors.Aggregates).Methods(http.MethodGet)

	// Settings
	protected.HandleFunc("/settings/camera", r.resources.Settings.GetCameraSettings).Methods(http.MethodGet)
	protected.Handle("/settings/camera",
		r.auth.RequireRoles(models.RoleAdmin)(http.HandlerFunc(r.resources.Settings.SaveCameraSettings)),
	).Methods(http.MethodPost)

	// Robot relay
	protected.HandleFunc("/robot/camera", r.resources.Robot.Camera).Methods(http.MethodGet)
	protected.HandleFunc("/robot/gps", r.resources.Robot.GPS).Methods(http.MethodGet)

	// Live events
	protected.HandleFunc("/stream/alerts", r.resources.Stream.Alerts).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
