package hubservice

import (
	"context"
	"encoding/json"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/anomaly"
	"github.com/robowatch/hub/internal/cache"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/repository"
)

// Events emitted by the hub service
const (
	EventCaptureRecorded = "capture.recorded"
	EventAlertCreated    = "alert.created"
	EventAlertUpdated    = "alert.updated"
	EventSensorRecorded  = "sensor.recorded"
	EventSettingsUpdated = "settings.updated"
	EventGatewayFailed   = "gateway.failed"
)

// DeviceGateway relays live snapshots from the field device
type DeviceGateway interface {
	Camera(ctx context.Context) (json.RawMessage, error)
	GPS(ctx context.Context) (json.RawMessage, error)
}

// SessionIssuer signs session tokens for password logins
type SessionIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// Dependencies wires the repositories and collaborators into a HubService.
// Sessions may be nil when an external identity provider handles logins.
type Dependencies struct {
	SensorData  repository.SensorDataRepository
	Images      repository.CameraImageRepository
	Alerts      repository.AlertRepository
	Configs     repository.ConfigRepository
	Users       repository.UserRepository
	Frames      repository.FrameStore
	Gateway     DeviceGateway
	Cache       cache.Cache
	Sessions    SessionIssuer
	Deriver     *anomaly.Deriver
	SettingsTTL time.Duration
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	SensorData repository.SensorDataRepository
	Images     repository.CameraImageRepository
	Alerts     repository.AlertRepository
	Configs    repository.ConfigRepository
	Users      repository.UserRepository
	Frames     repository.FrameStore

	gateway     DeviceGateway
	cache       cache.Cache
	sessions    SessionIssuer
	deriver     *anomaly.Deriver
	settingsTTL time.Duration
	events      *nuts.EventEmitter
	now         func() time.Time
}

// New creates a new HubService instance
func New(deps Dependencies) *HubService {
	deriver := deps.Deriver
	if deriver == nil {
		deriver = anomaly.NewDeriver(time.Local)
	}
	c := deps.Cache
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &HubService{
		SensorData:  deps.SensorData,
		Images:      deps.Images,
		Alerts:      deps.Alerts,
		Configs:     deps.Configs,
		Users:       deps.Users,
		Frames:      deps.Frames,
		gateway:     deps.Gateway,
		cache:       c,
		sessions:    deps.Sessions,
		deriver:     deriver,
		settingsTTL: deps.SettingsTTL,
		events:      nuts.NewEventEmitter(),
		now:         time.Now,
	}
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.SensorData == nil {
		return ErrMissingRepository("sensorData")
	}
	if s.Images == nil {
		return ErrMissingRepository("images")
	}
	if s.Alerts == nil {
		return ErrMissingRepository("alerts")
	}
	if s.Configs == nil {
		return ErrMissingRepository("configs")
	}
	if s.Users == nil {
		return ErrMissingRepository("users")
	}
	if s.Frames == nil {
		return ErrMissingRepository("frames")
	}
	if s.gateway == nil {
		return ErrMissingRepository("gateway")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// OnEvent registers a handler for a service event. The payload is the
// record the event is about.
func (s *HubService) OnEvent(event, handlerID string, handler func(payload interface{})) {
	if _, err := s.events.On(event, handlerID, handler); err != nil {
		nuts.L.Errorf("[HubService] Failed to register %s handler %s: %v", event, handlerID, err)
	}
}

func (s *HubService) emit(event string, payload interface{}) {
	if err := s.events.Emit(event, payload); err != nil {
		nuts.L.Errorf("[HubService] Failed to emit %s: %v", event, err)
	}
}
