// FilePath: internal/models/models.sensor_data.go
package models

import "time"

// SensorData is a single telemetry reading reported by the field device.
// Readings are append-only.
type SensorData struct {
	ID         string    `json:"id" db:"id"`
	SensorType string    `json:"sensorType" db:"sensor_type"`
	Value      float64   `json:"value" db:"value"`
	Unit       string    `json:"unit" db:"unit"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// SensorDataInput is the body accepted by the sensor ingest endpoint and
// the MQTT telemetry subscriber. Value is a pointer so that 0 is accepted.
type SensorDataInput struct {
	SensorType string     `json:"sensorType"`
	Value      *float64   `json:"value"`
	Unit       string     `json:"unit"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// SensorAggregate is one time bucket of readings for a sensor type
type SensorAggregate struct {
	SensorType string    `json:"sensorType" db:"sensor_type"`
	Bucket     time.Time `json:"bucket" db:"bucket"`
	Min        float64   `json:"min" db:"min"`
	Max        float64   `json:"max" db:"max"`
	Avg        float64   `json:"avg" db:"avg"`
	Count      int64     `json:"count" db:"count"`
}

// Aggregation intervals
const (
	IntervalHour = "hour"
	IntervalDay  = "day"
)

func ValidInterval(interval string) bool {
	return interval == IntervalHour || interval == IntervalDay
}
