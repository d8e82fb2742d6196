package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraSettingsInputResolve(t *testing.T) {
	var in CameraSettingsInput
	require.NoError(t, json.Unmarshal([]byte(`{"quality": 90, "auto_record": false, "frame_rate": "", "extra": "x"}`), &in))

	rows := in.Resolve()
	require.Len(t, rows, 5)

	got := map[string]string{}
	for _, r := range rows {
		assert.Equal(t, SettingsCategoryCamera, r.Category)
		got[r.Name] = r.Value
	}
	assert.Equal(t, map[string]string{
		"frame_rate":        "30",
		"quality":           "90",
		"anomaly_detection": "true",
		"auto_record":       "false",
		"record_duration":   "30",
	}, got)
}

func TestSettingValueRejectsObjects(t *testing.T) {
	var in CameraSettingsInput
	assert.Error(t, json.Unmarshal([]byte(`{"quality": {"a": 1}}`), &in))
}

func TestMergeCameraSettings(t *testing.T) {
	merged := MergeCameraSettings([]*RaspberryPiConfig{
		{Name: "quality", Value: "50"},
		{Name: "night_mode", Value: "on"},
	})
	assert.Equal(t, "50", merged["quality"])
	assert.Equal(t, "30", merged["frame_rate"])
	assert.Equal(t, "on", merged["night_mode"])
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 100},
		{"abc", 100},
		{"-3", 100},
		{"0", 100},
		{"25", 25},
		{"1000", 1000},
		{"5000", 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.raw, DefaultSensorLimit, MaxSensorLimit), "raw=%q", tt.raw)
	}
	assert.Equal(t, 100, ClampLimit("500", DefaultImageLimit, MaxImageLimit))
	assert.Equal(t, 10, ClampLimit("", DefaultImageLimit, MaxImageLimit))
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = ParseTime("2024-05-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, got.UTC().Hour())

	got, err = ParseTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}

func TestBoundingBoxScanValue(t *testing.T) {
	box := BoundingBox{X: 10, Y: 20.5, Width: 30, Height: 40}
	v, err := box.Value()
	require.NoError(t, err)

	var back BoundingBox
	require.NoError(t, back.Scan(v))
	assert.Equal(t, box, back)

	require.NoError(t, back.Scan(`{"x":1,"y":2,"width":3,"height":4}`))
	assert.Equal(t, 1.0, back.X)
	assert.Error(t, back.Scan(42))
}

func TestStatusAndSeverityValidation(t *testing.T) {
	assert.True(t, AlertStatusResolved.Valid())
	assert.False(t, AlertStatus("CLOSED").Valid())
	assert.True(t, SeverityCritical.Valid())
	assert.False(t, Severity("URGENT").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
}
