package retention

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/repository"
)

// Prune events. Handlers receive the record kind and the number removed.
const (
	EventSensorDataPruned   = "sensor_data.pruned"
	EventCameraImagesPruned = "camera_images.pruned"
	EventFramesPruned       = "frames.pruned"
)

// Result reports what one pass removed
type Result struct {
	SensorData   int64
	CameraImages int64
	Frames       int
}

// RetentionService deletes telemetry and captures older than the
// configured ages. Alerts are never pruned.
type RetentionService struct {
	config     config.RetentionConfig
	sensorData repository.SensorDataRepository
	images     repository.CameraImageRepository
	frames     repository.FrameStore
	events     *nuts.EventEmitter
	now        func() time.Time
}

// New creates a new RetentionService. frames may be nil.
func New(
	cfg config.RetentionConfig,
	sensorData repository.SensorDataRepository,
	images repository.CameraImageRepository,
	frames repository.FrameStore,
) *RetentionService {
	return &RetentionService{
		config:     cfg,
		sensorData: sensorData,
		images:     images,
		frames:     frames,
		events:     nuts.NewEventEmitter(),
		now:        time.Now,
	}
}

// Enabled reports whether any kind of record has a retention age.
func (s *RetentionService) Enabled() bool {
	return s.config.SensorData > 0 || s.config.CameraImages > 0
}

// Run prunes every interval until ctx is done.
func (s *RetentionService) Run(ctx context.Context) {
	if !s.Enabled() {
		nuts.L.Infof("[Retention] Disabled")
		return
	}
	nuts.L.Infof("[Retention] Pruning every %v (sensor data %v, camera images %v)",
		s.config.Interval, s.config.SensorData, s.config.CameraImages)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			nuts.L.Errorf("[Retention] Pass failed: %v", err)
		}
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Retention] Stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pruning pass.
func (s *RetentionService) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	now := s.now()

	if s.config.SensorData > 0 {
		n, err := s.sensorData.DeleteOlderThan(ctx, now.Add(-s.config.SensorData))
		if err != nil {
			return res, fmt.Errorf("failed to prune sensor data: %w", err)
		}
		res.SensorData = n
		if n > 0 {
			s.emit(EventSensorDataPruned, "sensor_data", n)
		}
	}

	if s.config.CameraImages > 0 {
		cutoff := now.Add(-s.config.CameraImages)
		n, err := s.pruneImages(ctx, cutoff)
		if err != nil {
			return res, err
		}
		res.CameraImages = n
		if n > 0 {
			s.emit(EventCameraImagesPruned, "camera_images", n)
		}

		if s.frames != nil {
			removed, err := s.frames.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return res, fmt.Errorf("failed to prune frames: %w", err)
			}
			res.Frames = removed
			if removed > 0 {
				s.emit(EventFramesPruned, "frames", int64(removed))
			}
		}
	}
	return res, nil
}

// pruneImages removes captures and their detections in one transaction
func (s *RetentionService) pruneImages(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.images.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	n, err := s.images.DeleteOlderThan(ctx, cutoff, tx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune camera images: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// OnPrune registers a callback for prune events
func (s *RetentionService) OnPrune(event string, handler func(kind string, count int64)) {
	if _, err := s.events.On(event, "retention_"+event, handler); err != nil {
		nuts.L.Errorf("[Retention] Failed to register %s handler: %v", event, err)
	}
}

func (s *RetentionService) emit(event, kind string, count int64) {
	if err := s.events.Emit(event, kind, count); err != nil {
		nuts.L.Errorf("[Retention] Failed to emit %s: %v", event, err)
	}
}
