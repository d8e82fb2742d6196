package hubservice

import (
	"context"
	"strings"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// SensorService handles telemetry readings
type SensorService interface {
	RecordSensorData(ctx context.Context, in models.SensorDataInput) (*models.SensorData, error)
	ListSensorData(ctx context.Context, filters models.SensorFilters) ([]*models.SensorData, error)
	SensorAggregates(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error)
}

// RecordSensorData appends one reading. A missing timestamp means now.
func (s *HubService) RecordSensorData(ctx context.Context, in models.SensorDataInput) (*models.SensorData, error) {
	sensorType := strings.TrimSpace(in.SensorType)
	unit := strings.TrimSpace(in.Unit)
	if sensorType == "" || in.Value == nil || unit == "" {
		return nil, errors.NewValidationError("sensorType, value and unit are required", nil)
	}

	ts := s.now()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}

	reading := &models.SensorData{
		ID:         nuts.NID("sd", 12),
		SensorType: sensorType,
		Value:      *in.Value,
		Unit:       unit,
		Timestamp:  ts,
	}
	if err := s.SensorData.Insert(ctx, reading); err != nil {
		return nil, err
	}
	s.emit(EventSensorRecorded, reading)
	return reading, nil
}

// ListSensorData returns readings newest first
func (s *HubService) ListSensorData(ctx context.Context, filters models.SensorFilters) ([]*models.SensorData, error) {
	if err := checkRange(filters.TimeRange); err != nil {
		return nil, err
	}
	filters.Limit = models.NormalizeLimit(filters.Limit, models.DefaultSensorLimit, models.MaxSensorLimit)
	return s.SensorData.List(ctx, filters)
}

// SensorAggregates buckets readings of one sensor type by hour or day. An
// empty interval means hourly.
func (s *HubService) SensorAggregates(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error) {
	sensorType = strings.TrimSpace(sensorType)
	if sensorType == "" {
		return nil, errors.NewValidationError("type is required", nil)
	}
	if interval == "" {
		interval = models.IntervalHour
	}
	if !models.ValidInterval(interval) {
		return nil, errors.NewValidationError("interval must be hour or day", nil)
	}
	if err := checkRange(tr); err != nil {
		return nil, err
	}
	return s.SensorData.Aggregate(ctx, sensorType, interval, tr)
}
