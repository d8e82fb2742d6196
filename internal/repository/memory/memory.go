// Package memory holds mutex-guarded in-process repositories. They back the
// "memory" database driver for local development and the service tests.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// Store is the shared state behind all memory repositories.
type Store struct {
	mu         sync.RWMutex
	sensorData []*models.SensorData
	images     map[string]*models.CameraImage
	detections map[string][]models.Detection
	alerts     map[string]*models.AnomalyAlert
	configs    map[string]*models.RaspberryPiConfig
	users      map[string]*models.User
}

func NewStore() *Store {
	return &Store{
		images:     map[string]*models.CameraImage{},
		detections: map[string][]models.Detection{},
		alerts:     map[string]*models.AnomalyAlert{},
		configs:    map[string]*models.RaspberryPiConfig{},
		users:      map[string]*models.User{},
	}
}

// noopTx satisfies database.Transaction; memory writes are applied directly.
type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
func (noopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, fmt.Errorf("memory store does not execute SQL")
}

func inRange(t time.Time, tr models.TimeRange) bool {
	if tr.From != nil && t.Before(*tr.From) {
		return false
	}
	if tr.To != nil && t.After(*tr.To) {
		return false
	}
	return true
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// SensorDataRepo

type SensorDataRepo struct{ s *Store }

func NewSensorDataRepository(s *Store) *SensorDataRepo { return &SensorDataRepo{s: s} }

func (r *SensorDataRepo) Insert(ctx context.Context, reading *models.SensorData) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *reading
	r.s.sensorData = append(r.s.sensorData, &cp)
	return nil
}

func (r *SensorDataRepo) List(ctx context.Context, f models.SensorFilters) ([]*models.SensorData, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.SensorData{}
	for _, sd := range r.s.sensorData {
		if f.Type != "" && sd.SensorType != f.Type {
			continue
		}
		if !inRange(sd.Timestamp, f.TimeRange) {
			continue
		}
		cp := *sd
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return truncate(out, f.Limit), nil
}

func (r *SensorDataRepo) Aggregate(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error) {
	if !models.ValidInterval(interval) {
		return nil, errors.NewValidationError("invalid interval", nil)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	buckets := map[time.Time]*models.SensorAggregate{}
	sums := map[time.Time]float64{}
	for _, sd := range r.s.sensorData {
		if sd.SensorType != sensorType || !inRange(sd.Timestamp, tr) {
			continue
		}
		key := bucketOf(sd.Timestamp, interval)
		agg, ok := buckets[key]
		if !ok {
			agg = &models.SensorAggregate{SensorType: sensorType, Bucket: key, Min: sd.Value, Max: sd.Value}
			buckets[key] = agg
		}
		if sd.Value < agg.Min {
			agg.Min = sd.Value
		}
		if sd.Value > agg.Max {
			agg.Max = sd.Value
		}
		agg.Count++
		sums[key] += sd.Value
	}

	out := make([]models.SensorAggregate, 0, len(buckets))
	for key, agg := range buckets {
		agg.Avg = sums[key] / float64(agg.Count)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.After(out[j].Bucket) })
	return out, nil
}

func bucketOf(t time.Time, interval string) time.Time {
	t = t.UTC()
	if interval == models.IntervalDay {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Truncate(time.Hour)
}

func (r *SensorDataRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.sensorData[:0]
	var deleted int64
	for _, sd := range r.s.sensorData {
		if sd.Timestamp.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, sd)
	}
	r.s.sensorData = kept
	return deleted, nil
}

// CameraImageRepo

type CameraImageRepo struct{ s *Store }

func NewCameraImageRepository(s *Store) *CameraImageRepo { return &CameraImageRepo{s: s} }

func (r *CameraImageRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func (r *CameraImageRepo) Create(ctx context.Context, image *models.CameraImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.images[image.ID]; exists {
		return errors.NewDatabaseError("camera image already exists", nil)
	}
	cp := *image
	cp.Detections = nil
	r.s.images[image.ID] = &cp
	return nil
}

func (r *CameraImageRepo) CreateDetections(ctx context.Context, detections []models.Detection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range detections {
		if _, ok := r.s.images[d.CameraImageID]; !ok {
			return errors.NewDatabaseError("detection references unknown camera image", nil)
		}
	}
	for _, d := range detections {
		r.s.detections[d.CameraImageID] = append(r.s.detections[d.CameraImageID], d)
	}
	return nil
}

func (r *CameraImageRepo) withDetections(img *models.CameraImage) *models.CameraImage {
	cp := *img
	cp.Detections = append([]models.Detection{}, r.s.detections[img.ID]...)
	return &cp
}

func (r *CameraImageRepo) Get(ctx context.Context, id string) (*models.CameraImage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	img, ok := r.s.images[id]
	if !ok {
		return nil, errors.NewNotFoundError("camera image not found", nil)
	}
	return r.withDetections(img), nil
}

func (r *CameraImageRepo) List(ctx context.Context, f models.ImageFilters) ([]*models.CameraImage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.CameraImage{}
	for _, img := range r.s.images {
		if f.WithDetections && !img.Processed {
			continue
		}
		if !inRange(img.CapturedAt, f.TimeRange) {
			continue
		}
		out = append(out, r.withDetections(img))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].ID < out[j].ID
		}
		if f.Latest {
			return out[i].CapturedAt.After(out[j].CapturedAt)
		}
		return out[i].CapturedAt.Before(out[j].CapturedAt)
	})
	return truncate(out, f.Limit), nil
}

func (r *CameraImageRepo) DeleteOlderThan(ctx context.Context, before time.Time, tx database.Transaction) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, img := range r.s.images {
		if img.CapturedAt.Before(before) {
			delete(r.s.images, id)
			delete(r.s.detections, id)
			deleted++
		}
	}
	return deleted, nil
}

// AlertRepo

type AlertRepo struct{ s *Store }

func NewAlertRepository(s *Store) *AlertRepo { return &AlertRepo{s: s} }

func (r *AlertRepo) Create(ctx context.Context, alert *models.AnomalyAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.alerts[alert.ID]; exists {
		return errors.NewDatabaseError("alert already exists", nil)
	}
	cp := *alert
	cp.AssignedUser = nil
	cp.RelatedImages = append([]models.AlertImage{}, alert.RelatedImages...)
	r.s.alerts[alert.ID] = &cp
	return nil
}

// hydrate copies an alert and resolves its assignee. Callers hold the lock.
func (r *AlertRepo) hydrate(a *models.AnomalyAlert) *models.AnomalyAlert {
	cp := *a
	cp.RelatedImages = append([]models.AlertImage{}, a.RelatedImages...)
	cp.AssignedUser = nil
	if a.AssignedUserID != nil {
		if u, ok := r.s.users[*a.AssignedUserID]; ok {
			cp.AssignedUser = u.Summary()
		}
	}
	return &cp
}

func (r *AlertRepo) Get(ctx context.Context, id string) (*models.AnomalyAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.alerts[id]
	if !ok {
		return nil, errors.NewNotFoundError("alert not found", nil)
	}
	return r.hydrate(a), nil
}

func (r *AlertRepo) List(ctx context.Context, f models.AlertFilters) ([]*models.AnomalyAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.AnomalyAlert{}
	for _, a := range r.s.alerts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if !inRange(a.CreatedAt, f.TimeRange) {
			continue
		}
		out = append(out, r.hydrate(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return truncate(out, f.Limit), nil
}

func (r *AlertRepo) Update(ctx context.Context, alert *models.AnomalyAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.alerts[alert.ID]
	if !ok {
		return errors.NewNotFoundError("alert not found", nil)
	}
	stored.Status = alert.Status
	stored.AssignedUserID = alert.AssignedUserID
	stored.ResolvedAt = alert.ResolvedAt
	stored.UpdatedAt = alert.UpdatedAt
	return nil
}

// ConfigRepo

type ConfigRepo struct{ s *Store }

func NewConfigRepository(s *Store) *ConfigRepo { return &ConfigRepo{s: s} }

func (r *ConfigRepo) ListByCategory(ctx context.Context, category string) ([]*models.RaspberryPiConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.RaspberryPiConfig{}
	for _, row := range r.s.configs {
		if row.Category == category {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ConfigRepo) Upsert(ctx context.Context, row *models.RaspberryPiConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.configs[row.Name]; ok {
		existing.Value = row.Value
		existing.Category = row.Category
		existing.UpdatedAt = row.UpdatedAt
		return nil
	}
	cp := *row
	r.s.configs[row.Name] = &cp
	return nil
}

// UserRepo

type UserRepo struct{ s *Store }

func NewUserRepository(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.NewValidationError("email already registered", nil)
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found", nil)
}
