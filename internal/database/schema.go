// FilePath: internal/database/schema.go
package database

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
)

// appSchema is applied in order; every statement is idempotent.
var appSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'USER',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_data (
		id TEXT PRIMARY KEY,
		sensor_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_type_ts ON sensor_data (sensor_type, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS camera_images (
		id TEXT PRIMARY KEY,
		image_url TEXT NOT NULL,
		thumbnail_url TEXT,
		gps_latitude DOUBLE PRECISION,
		gps_longitude DOUBLE PRECISION,
		robot_status TEXT,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		captured_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_camera_images_captured ON camera_images (captured_at)`,
	`CREATE TABLE IF NOT EXISTS detections (
		id TEXT PRIMARY KEY,
		camera_image_id TEXT NOT NULL REFERENCES camera_images(id) ON DELETE CASCADE,
		detection_type TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		bounding_box JSONB,
		notes TEXT,
		detected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_image ON detections (camera_image_id)`,
	`CREATE TABLE IF NOT EXISTS anomaly_alerts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'NEW',
		gps_latitude DOUBLE PRECISION,
		gps_longitude DOUBLE PRECISION,
		assigned_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_anomaly_alerts_created ON anomaly_alerts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS alert_images (
		id TEXT PRIMARY KEY,
		anomaly_alert_id TEXT NOT NULL REFERENCES anomaly_alerts(id) ON DELETE CASCADE,
		image_url TEXT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS raspberry_pi_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		category TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the application tables if they do not exist.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range appSchema {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	nuts.L.Infof("[PostgresDB] Schema up to date (%d statements)", len(appSchema))
	return nil
}
