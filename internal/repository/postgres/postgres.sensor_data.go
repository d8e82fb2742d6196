// FilePath: internal/repository/postgres/postgres.sensor_data.go
package postgres

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// SensorDataRepo keeps readings in the sensor_data table of the app database.
type SensorDataRepo struct {
	PostgresBaseRepo
	table string
}

func NewSensorDataRepository(db database.DB) *SensorDataRepo {
	return &SensorDataRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}, table: "sensor_data"}
}

func (r *SensorDataRepo) Insert(ctx context.Context, reading *models.SensorData) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, sensor_type, value, unit, timestamp)
		VALUES (:id, :sensor_type, :value, :unit, :timestamp)`, r.table)

	if _, err := r.db.GetDB().NamedExecContext(ctx, query, reading); err != nil {
		return errors.NewDatabaseError("failed to insert sensor data", err)
	}
	return nil
}

func (r *SensorDataRepo) List(ctx context.Context, filters models.SensorFilters) ([]*models.SensorData, error) {
	query, args := buildSensorListQuery(r.table, filters)

	readings := []*models.SensorData{}
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor data", err)
	}
	return readings, nil
}

func (r *SensorDataRepo) Aggregate(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error) {
	if !models.ValidInterval(interval) {
		return nil, errors.NewValidationError("invalid interval", nil)
	}

	w := &whereBuilder{}
	w.add("sensor_type = ?", sensorType)
	w.addRange("timestamp", tr)
	query := fmt.Sprintf(`
		SELECT sensor_type,
			date_trunc('%s', timestamp) AS bucket,
			MIN(value) AS min,
			MAX(value) AS max,
			AVG(value) AS avg,
			COUNT(*) AS count
		FROM %s%s
		GROUP BY 1, 2
		ORDER BY bucket DESC`, interval, r.table, w.where())

	aggregates := []models.SensorAggregate{}
	if err := r.db.GetDB().SelectContext(ctx, &aggregates, query, w.args...); err != nil {
		return nil, errors.NewDatabaseError("failed to aggregate sensor data", err)
	}
	return aggregates, nil
}

func (r *SensorDataRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE timestamp < $1`, r.table)

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old sensor data", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	nuts.L.Infof("[SensorDataRepo] Deleted %d sensor readings older than %v", rows, before)
	return rows, nil
}
