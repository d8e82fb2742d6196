// FilePath: internal/models/api.models.filters.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAlertLimit  = 100
	MaxAlertLimit      = 1000
	DefaultSensorLimit = 100
	MaxSensorLimit     = 1000
	DefaultImageLimit  = 10
	MaxImageLimit      = 100
)

// TimeRange is an inclusive range; nil bounds are open.
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// AlertFilters defines the available filter options for alerts
type AlertFilters struct {
	Status   AlertStatus
	Severity Severity
	TimeRange
	Limit int
}

// SensorFilters defines the available filter options for sensor readings
type SensorFilters struct {
	Type string
	TimeRange
	Limit int
}

// ImageFilters defines the available filter options for camera images.
// Latest selects newest-first ordering, otherwise oldest-first.
type ImageFilters struct {
	WithDetections bool
	Latest         bool
	TimeRange
	Limit int
}

// ClampLimit parses a requested limit, falling back to def when it is
// absent or not a positive integer, and never exceeding max.
func ClampLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 0
	}
	return NormalizeLimit(n, def, max)
}

// NormalizeLimit applies the same rules to an already parsed limit.
func NormalizeLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC3339 timestamps and plain dates. An empty string
// yields nil.
func ParseTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}
