package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: time.Second,
			Timezone:        "UTC",
			CORSOrigins:     []string{"*"},
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			Provider:   config.AuthProviderJWT,
			JWTSecret:  "0123456789abcdef",
			SessionTTL: time.Hour,
		},
		Redis:      config.RedisConfig{Channel: "robowatch:test"},
		Cache:      config.CacheConfig{SettingsTTL: time.Minute},
		Device:     config.DeviceConfig{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond},
		FileStore:  config.FileStoreConfig{BasePath: t.TempDir(), MaxFileSize: 1 << 20, AllowedMimeTypes: []string{"image/jpeg"}},
		Retention:  config.RetentionConfig{Interval: time.Hour},
		Monitoring: config.MonitoringConfig{MetricsEnabled: true},
	}
}

func TestOpenStoresMemory(t *testing.T) {
	stores, err := OpenStores(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer stores.Close()

	assert.NotNil(t, stores.SensorData)
	assert.NotNil(t, stores.Images)
	assert.NotNil(t, stores.Alerts)
	assert.NotNil(t, stores.Configs)
	assert.NotNil(t, stores.Users)
}

func TestEventsReachStreamAndMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(testConfig(t))
	require.NoError(t, s.initialize(ctx))
	defer s.close()
	s.setupEventHandlers(ctx)
	handler := s.buildHandler()

	user, err := s.hubservice.CreateUser(ctx, hubservice.NewUser{Name: "Ops", Email: "ops@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	token, _, err := s.sessions.Issue(user)
	require.NoError(t, err)

	messages, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	body, err := json.Marshal(models.CaptureRequest{
		ImageURL:   "frame.jpg",
		Detections: []models.DetectionInput{{Type: "Deer", Confidence: 0.8}},
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/camera/capture", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	select {
	case msg := <-messages:
		assert.Equal(t, hubservice.EventAlertCreated, msg.Type)
		alert, ok := msg.Data.(*models.AnomalyAlert)
		require.True(t, ok)
		assert.Equal(t, models.SeverityMedium, alert.Severity)
	case <-time.After(2 * time.Second):
		t.Fatal("alert.created did not reach the stream")
	}

	// Sensor readings and captures stay off the alert stream.
	value := 20.0
	_, err = s.hubservice.RecordSensorData(ctx, models.SensorDataInput{SensorType: "temperature", Value: &value, Unit: "C"})
	require.NoError(t, err)
	select {
	case msg := <-messages:
		t.Fatalf("unexpected %s on the alert stream", msg.Type)
	case <-time.After(100 * time.Millisecond):
	}

	assert.Eventually(t, func() bool {
		n, err := testutil.GatherAndCount(s.monitoring.Registry(), "robowatch_alerts_created_total")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	s := New(testConfig(t))
	require.NoError(t, s.initialize(ctx))
	defer s.close()
	s.setupEventHandlers(ctx)

	_, err := s.hubservice.RobotGPS(ctx)
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		n, err := testutil.GatherAndCount(s.monitoring.Registry(), "robowatch_gateway_failures_total")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestKeycloakProviderDisablesPasswordLogin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Provider = config.AuthProviderKeycloak
	cfg.Auth.Keycloak = config.KeycloakConfig{URL: "http://127.0.0.1:1", Realm: "robowatch", ClientID: "hub"}

	s := New(cfg)
	require.NoError(t, s.initialize(context.Background()))
	defer s.close()

	assert.Nil(t, s.sessions)
	_, err := s.hubservice.Login(context.Background(), "ops@example.com", "whatever")
	require.Error(t, err)
}
