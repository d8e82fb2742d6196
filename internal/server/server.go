// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/api"
	"github.com/robowatch/hub/api/middleware"
	"github.com/robowatch/hub/api/resources"
	"github.com/robowatch/hub/internal/anomaly"
	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/cache"
	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/gateway"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/ingest"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/monitoring"
	"github.com/robowatch/hub/internal/repository/files"
	"github.com/robowatch/hub/internal/retention"
	"github.com/robowatch/hub/internal/stream"
)

const framesURLPrefix = "/api/v1/camera/frames"

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	stores     *Stores
	cache      cache.Cache
	broker     *stream.Broker
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	retention  *retention.RetentionService
	ingest     *ingest.Subscriber
	verifier   auth.Verifier
	sessions   hubservice.SessionIssuer
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start wires all components, begins listening and blocks until SIGINT or
// SIGTERM.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.initialize(ctx); err != nil {
		return err
	}
	defer s.close()

	// Set up event handlers
	s.setupEventHandlers(ctx)

	// Setup routes
	s.srv.Handler = s.buildHandler()

	go s.retention.Run(ctx)

	if s.ingest != nil {
		if err := s.ingest.Start(ctx); err != nil {
			nuts.L.Errorf("[Server] MQTT ingest not started: %v", err)
		}
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(cancel, errCh)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(cancel context.CancelFunc, errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-errCh:
		cancel()
		return fmt.Errorf("error starting server: %w", err)
	}

	nuts.L.Infof("[Server] Shutting down server...")
	cancel()

	ctx, done := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer done()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) initialize(ctx context.Context) error {
	var err error
	s.monitoring, err = monitoring.NewService()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s.stores, err = OpenStores(ctx, s.config)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	frames, err := files.NewFrameRepository(files.FileConfig{
		BasePath:    s.config.FileStore.BasePath,
		MaxFileSize: s.config.FileStore.MaxFileSize,
		AllowedMime: s.config.FileStore.AllowedMimeTypes,
		URLPrefix:   framesURLPrefix,
	})
	if err != nil {
		s.stores.Close()
		return fmt.Errorf("failed to initialize frame store: %w", err)
	}

	s.cache = cache.New(ctx, s.config.Redis)
	s.broker = stream.NewBroker(32)
	s.initAuth()

	s.hubservice = hubservice.New(hubservice.Dependencies{
		SensorData:  s.stores.SensorData,
		Images:      s.stores.Images,
		Alerts:      s.stores.Alerts,
		Configs:     s.stores.Configs,
		Users:       s.stores.Users,
		Frames:      frames,
		Gateway:     gateway.New(s.config.Device),
		Cache:       s.cache,
		Sessions:    s.sessions,
		Deriver:     anomaly.NewDeriver(s.config.Server.Location()),
		SettingsTTL: s.config.Cache.SettingsTTL,
	})
	if err := s.hubservice.Validate(); err != nil {
		s.close()
		return err
	}

	s.retention = retention.New(s.config.Retention, s.stores.SensorData, s.stores.Images, frames)

	if s.config.MQTT.Enabled {
		s.ingest = ingest.New(s.config.MQTT, s.hubservice, s.monitoring)
	}
	return nil
}

// initAuth picks the token verifier. Keycloak deployments have no local
// password login.
func (s *Server) initAuth() {
	if s.config.Auth.Provider == config.AuthProviderKeycloak {
		nuts.L.Infof("[Server] Verifying sessions against Keycloak realm %s", s.config.Auth.Keycloak.Realm)
		s.verifier = auth.NewKeycloakVerifier(s.config.Auth.Keycloak)
		return
	}
	tokens := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
	s.verifier = tokens
	s.sessions = tokens
}

func (s *Server) buildHandler() http.Handler {
	var metrics *monitoring.Service
	if s.config.Monitoring.MetricsEnabled {
		metrics = s.monitoring
	}

	res := resources.NewResources(s.hubservice, s.broker, resources.Options{
		CookieSecure:  s.config.Auth.CookieSecure,
		MaxUploadSize: s.config.FileStore.MaxFileSize,
	})
	router := api.NewRouter(res, middleware.NewAuthMiddleware(s.verifier, s.config.Device.APIKey), metrics)

	var h http.Handler = router
	h = handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.DeviceKeyHeader}),
		handlers.AllowCredentials(),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(h)
	return h
}

func accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	nuts.L.Infof("[HTTP] %s %s %d %dB %s",
		p.Request.Method, p.URL.RequestURI(), p.StatusCode, p.Size, time.Since(p.TimeStamp).Round(time.Millisecond))
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[Server] Recovered from panic: %s", fmt.Sprint(v...))
}

// alertStreamEvents are the events dashboards receive on /stream/alerts
var alertStreamEvents = map[string]bool{
	hubservice.EventAlertCreated: true,
	hubservice.EventAlertUpdated: true,
}

// setupEventHandlers fans service events out to metrics and the redis
// channel. Alert events also go to the live stream.
func (s *Server) setupEventHandlers(ctx context.Context) {
	relay := func(event string, labels func(payload interface{}) map[string]string) {
		s.hubservice.OnEvent(event, "server_"+event, func(payload interface{}) {
			var l map[string]string
			if labels != nil {
				l = labels(payload)
			}
			s.monitoring.RecordEvent(event, l)

			msg := stream.Message{Type: event, Data: payload}
			if alertStreamEvents[event] {
				s.broker.Publish(msg)
			}
			if err := s.cache.Publish(ctx, s.config.Redis.Channel, msg); err != nil {
				nuts.L.Warnf("[Server] Failed to publish %s: %v", event, err)
			}
		})
	}

	relay(hubservice.EventAlertCreated, func(payload interface{}) map[string]string {
		alert, ok := payload.(*models.AnomalyAlert)
		if !ok {
			return nil
		}
		nuts.L.Infof("[Server] Alert %s raised (%s): %s", alert.ID, alert.Severity, alert.Title)
		return map[string]string{"severity": string(alert.Severity)}
	})
	relay(hubservice.EventAlertUpdated, nil)
	relay(hubservice.EventCaptureRecorded, nil)
	relay(hubservice.EventSensorRecorded, nil)
	relay(hubservice.EventSettingsUpdated, nil)

	s.hubservice.OnEvent(hubservice.EventGatewayFailed, "server_gateway_failed", func(payload interface{}) {
		endpoint, _ := payload.(string)
		s.monitoring.RecordGatewayFailure(endpoint)
	})

	for _, event := range []string{retention.EventSensorDataPruned, retention.EventCameraImagesPruned, retention.EventFramesPruned} {
		event := event
		s.retention.OnPrune(event, func(kind string, count int64) {
			nuts.L.Infof("[Retention] Pruned %d %s", count, kind)
			s.monitoring.RecordEvent(event, map[string]string{
				"kind":  kind,
				"count": strconv.FormatInt(count, 10),
			})
		})
	}
}

func (s *Server) close() {
	if s.ingest != nil {
		s.ingest.Stop()
	}
	if s.broker != nil {
		s.broker.Close()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing cache: %v", err)
		}
	}
	if s.stores != nil {
		s.stores.Close()
	}
}
