// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/models"
)

// SensorDataRepository stores telemetry readings
type SensorDataRepository interface {
	Insert(ctx context.Context, reading *models.SensorData) error
	List(ctx context.Context, filters models.SensorFilters) ([]*models.SensorData, error)
	Aggregate(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// CameraImageRepository stores captures and their detections. Get and List
// return images with detections attached.
type CameraImageRepository interface {
	database.Repository
	Create(ctx context.Context, image *models.CameraImage) error
	CreateDetections(ctx context.Context, detections []models.Detection) error
	Get(ctx context.Context, id string) (*models.CameraImage, error)
	List(ctx context.Context, filters models.ImageFilters) ([]*models.CameraImage, error)
	DeleteOlderThan(ctx context.Context, before time.Time, tx database.Transaction) (int64, error)
}

// AlertRepository stores anomaly alerts. Get and List return alerts with
// related images and the assigned user summary attached.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.AnomalyAlert) error
	Get(ctx context.Context, id string) (*models.AnomalyAlert, error)
	List(ctx context.Context, filters models.AlertFilters) ([]*models.AnomalyAlert, error)
	Update(ctx context.Context, alert *models.AnomalyAlert) error
}

// ConfigRepository stores device configuration rows keyed by name
type ConfigRepository interface {
	ListByCategory(ctx context.Context, category string) ([]*models.RaspberryPiConfig, error)
	Upsert(ctx context.Context, row *models.RaspberryPiConfig) error
}

// UserRepository stores dashboard users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// FrameStore keeps uploaded frame files
type FrameStore interface {
	Save(ctx context.Context, filename, mimeType string, src io.Reader) (*models.Frame, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *models.Frame, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
}
