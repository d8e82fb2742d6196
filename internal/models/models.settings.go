// FilePath: internal/models/models.settings.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SettingsCategoryCamera groups the camera settings rows.
const SettingsCategoryCamera = "camera"

// RaspberryPiConfig is one key/value row of device configuration,
// upserted by name.
type RaspberryPiConfig struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"value" db:"value"`
	Category  string    `json:"category" db:"category"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CameraSettingKeys lists the five camera settings in write order.
var CameraSettingKeys = []string{
	"frame_rate",
	"quality",
	"anomaly_detection",
	"auto_record",
	"record_duration",
}

// DefaultCameraSettings returns a fresh copy of the built-in defaults.
func DefaultCameraSettings() map[string]string {
	return map[string]string{
		"frame_rate":        "30",
		"quality":           "75",
		"anomaly_detection": "true",
		"auto_record":       "true",
		"record_duration":   "30",
	}
}

// SettingValue accepts a JSON string, number or boolean and keeps its
// textual form. null decodes to the empty string.
type SettingValue string

func (s *SettingValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SettingValue(str)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = SettingValue(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("setting value must be a string, number or boolean")
		}
		*s = SettingValue(n.String())
	}
	return nil
}

// CameraSettingsInput is the body of a camera settings write. Unknown keys
// are ignored.
type CameraSettingsInput map[string]SettingValue

// Resolve returns the value to store for every known key, substituting the
// built-in default for missing or empty entries.
func (in CameraSettingsInput) Resolve() []RaspberryPiConfig {
	defaults := DefaultCameraSettings()
	out := make([]RaspberryPiConfig, 0, len(CameraSettingKeys))
	for _, key := range CameraSettingKeys {
		value := string(in[key])
		if value == "" {
			value = defaults[key]
		}
		out = append(out, RaspberryPiConfig{
			Name:     key,
			Value:    value,
			Category: SettingsCategoryCamera,
		})
	}
	return out
}

// MergeCameraSettings overlays stored rows on the defaults.
func MergeCameraSettings(stored []*RaspberryPiConfig) map[string]string {
	result := DefaultCameraSettings()
	for _, row := range stored {
		result[row.Name] = row.Value
	}
	return result
}
