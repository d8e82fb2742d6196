package postgres

import (
	"fmt"
	"strings"

	"github.com/robowatch/hub/internal/models"
)

// whereBuilder numbers placeholders in the order conditions are added.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends a condition whose single "?" is replaced by the next placeholder.
func (w *whereBuilder) add(cond string, arg interface{}) {
	w.conds = append(w.conds, strings.Replace(cond, "?", w.bind(arg), 1))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) bind(arg interface{}) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) addRange(column string, tr models.TimeRange) {
	if tr.From != nil {
		w.add(column+" >= ?", *tr.From)
	}
	if tr.To != nil {
		w.add(column+" <= ?", *tr.To)
	}
}

func (w *whereBuilder) where() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *whereBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	return " LIMIT " + w.bind(n)
}

const alertColumns = `id, title, description, severity, status, gps_latitude, gps_longitude,
	assigned_user_id, resolved_at, created_at, updated_at`

func buildAlertListQuery(f models.AlertFilters) (string, []interface{}) {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Severity != "" {
		w.add("severity = ?", string(f.Severity))
	}
	w.addRange("created_at", f.TimeRange)
	query := "SELECT " + alertColumns + " FROM anomaly_alerts" + w.where() +
		" ORDER BY created_at DESC" + w.limit(f.Limit)
	return query, w.args
}

const sensorDataColumns = `id, sensor_type, value, unit, timestamp`

func buildSensorListQuery(table string, f models.SensorFilters) (string, []interface{}) {
	w := &whereBuilder{}
	if f.Type != "" {
		w.add("sensor_type = ?", f.Type)
	}
	w.addRange("timestamp", f.TimeRange)
	query := "SELECT " + sensorDataColumns + " FROM " + table + w.where() +
		" ORDER BY timestamp DESC" + w.limit(f.Limit)
	return query, w.args
}

const imageColumns = `id, image_url, thumbnail_url, gps_latitude, gps_longitude, robot_status,
	processed, captured_at, created_at`

func buildImageListQuery(f models.ImageFilters) (string, []interface{}) {
	w := &whereBuilder{}
	if f.WithDetections {
		w.addRaw("processed = TRUE")
	}
	w.addRange("captured_at", f.TimeRange)
	order := "ASC"
	if f.Latest {
		order = "DESC"
	}
	query := "SELECT " + imageColumns + " FROM camera_images" + w.where() +
		" ORDER BY captured_at " + order + w.limit(f.Limit)
	return query, w.args
}
