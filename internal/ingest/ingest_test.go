package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/monitoring"
)

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) RecordSensorData(ctx context.Context, in models.SensorDataInput) (*models.SensorData, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*models.SensorData), args.Error(1)
	}
	return nil, args.Error(1)
}

type countingMetrics struct{ results []string }

func (c *countingMetrics) RecordIngest(result string) { c.results = append(c.results, result) }

func TestParsePayload(t *testing.T) {
	in, err := parsePayload("robowatch/sensors/temperature", []byte(`{"value": 0, "unit": "C"}`))
	require.NoError(t, err)
	assert.Equal(t, "temperature", in.SensorType)
	require.NotNil(t, in.Value)
	assert.Equal(t, 0.0, *in.Value)

	in, err = parsePayload("robowatch/sensors/x", []byte(`{"sensorType": "humidity", "value": 40.5, "unit": "%"}`))
	require.NoError(t, err)
	assert.Equal(t, "humidity", in.SensorType)

	_, err = parsePayload("robowatch/sensors/x", []byte(`not json`))
	assert.Error(t, err)
}

func TestHandleMessageResults(t *testing.T) {
	rec := &mockRecorder{}
	metrics := &countingMetrics{}
	s := New(config.MQTTConfig{Topic: "robowatch/sensors/+"}, rec, metrics)

	rec.On("RecordSensorData", mock.MatchedBy(func(in models.SensorDataInput) bool {
		return in.SensorType == "temperature"
	})).Return(&models.SensorData{ID: "sd_1"}, nil).Once()
	rec.On("RecordSensorData", mock.MatchedBy(func(in models.SensorDataInput) bool {
		return in.SensorType == "battery"
	})).Return(nil, errors.NewValidationError("unit is required", nil)).Once()
	rec.On("RecordSensorData", mock.MatchedBy(func(in models.SensorDataInput) bool {
		return in.SensorType == "pressure"
	})).Return(nil, errors.NewDatabaseError("failed", fmt.Errorf("conn reset"))).Once()

	s.handleMessage("robowatch/sensors/temperature", []byte(`{"value": 21.5, "unit": "C"}`))
	s.handleMessage("robowatch/sensors/battery", []byte(`{"value": 80}`))
	s.handleMessage("robowatch/sensors/pressure", []byte(`{"value": 1013, "unit": "hPa"}`))
	s.handleMessage("robowatch/sensors/garbage", []byte(`{`))

	assert.Equal(t, []string{
		monitoring.ResultStored,
		monitoring.ResultRejected,
		monitoring.ResultFailed,
		monitoring.ResultRejected,
	}, metrics.results)
	rec.AssertExpectations(t)
}
