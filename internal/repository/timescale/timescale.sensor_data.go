// FilePath: internal/repository/timescale/timescale.sensor_data.go
package timescale

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/repository/postgres"
)

// SensorDataRepo stores readings in a TimescaleDB hypertable. Inserts,
// listing and pruning are plain SQL; aggregates read the continuous views.
type SensorDataRepo struct {
	*postgres.SensorDataRepo
	db database.DB
}

func NewSensorDataRepository(ctx context.Context, db database.DB) (*SensorDataRepo, error) {
	repo := &SensorDataRepo{
		SensorDataRepo: postgres.NewSensorDataRepository(db),
		db:             db,
	}
	if err := repo.initializeSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SensorDataRepo) initializeSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sensor_data (
			id TEXT NOT NULL,
			sensor_type TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (id, timestamp)
		)`,
		`SELECT create_hypertable('sensor_data', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_data_type_ts
			ON sensor_data(sensor_type, timestamp DESC)`,
	}
	for _, interval := range []string{models.IntervalHour, models.IntervalDay} {
		queries = append(queries, aggregateViewDDL(interval)...)
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().ExecContext(ctx, query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	nuts.L.Infof("[TimescaleDB] sensor_data hypertable ready")
	return nil
}

func aggregateView(interval string) string {
	if interval == models.IntervalDay {
		return "sensor_data_daily"
	}
	return "sensor_data_hourly"
}

// refreshPolicy is the window a continuous aggregate policy materializes
// on each run.
type refreshPolicy struct {
	startOffset string
	endOffset   string
	schedule    string
}

var refreshPolicies = map[string]refreshPolicy{
	models.IntervalHour: {startOffset: "3 days", endOffset: "1 hour", schedule: "30 minutes"},
	models.IntervalDay:  {startOffset: "30 days", endOffset: "1 day", schedule: "1 hour"},
}

// aggregateViewDDL creates the continuous aggregate for interval. Views are
// real-time so buckets newer than the last refresh are computed from the
// hypertable at query time.
func aggregateViewDDL(interval string) []string {
	view := aggregateView(interval)
	policy := refreshPolicies[interval]
	return []string{
		fmt.Sprintf(`
			CREATE MATERIALIZED VIEW IF NOT EXISTS %s
			WITH (timescaledb.continuous, timescaledb.materialized_only = false) AS
			SELECT sensor_type,
				time_bucket('1 %s', timestamp) AS bucket,
				MIN(value) AS min_value,
				MAX(value) AS max_value,
				AVG(value) AS avg_value,
				COUNT(*) AS reading_count
			FROM sensor_data
			GROUP BY sensor_type, time_bucket('1 %s', timestamp)
			WITH NO DATA`,
			view, interval, interval),
		// Views created by older schemas were materialized-only.
		fmt.Sprintf(`ALTER MATERIALIZED VIEW %s SET (timescaledb.materialized_only = false)`, view),
		fmt.Sprintf(`SELECT add_continuous_aggregate_policy('%s',
			start_offset => INTERVAL '%s',
			end_offset => INTERVAL '%s',
			schedule_interval => INTERVAL '%s',
			if_not_exists => TRUE
		)`, view, policy.startOffset, policy.endOffset, policy.schedule),
	}
}

func buildAggregateQuery(sensorType, interval string, tr models.TimeRange) (string, []interface{}) {
	args := []interface{}{sensorType}
	query := fmt.Sprintf(`
		SELECT
			sensor_type,
			bucket,
			min_value AS min,
			max_value AS max,
			avg_value AS avg,
			reading_count AS count
		FROM %s
		WHERE sensor_type = $1`, aggregateView(interval))
	if tr.From != nil {
		args = append(args, *tr.From)
		query += fmt.Sprintf(" AND bucket >= $%d", len(args))
	}
	if tr.To != nil {
		args = append(args, *tr.To)
		query += fmt.Sprintf(" AND bucket <= $%d", len(args))
	}
	query += " ORDER BY bucket DESC"
	return query, args
}

// Aggregate reads the continuous aggregate view for interval.
func (r *SensorDataRepo) Aggregate(ctx context.Context, sensorType, interval string, tr models.TimeRange) ([]models.SensorAggregate, error) {
	if !models.ValidInterval(interval) {
		return nil, errors.NewValidationError("invalid interval", nil)
	}

	query, args := buildAggregateQuery(sensorType, interval, tr)
	aggregates := []models.SensorAggregate{}
	if err := r.db.GetDB().SelectContext(ctx, &aggregates, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to get sensor aggregates", err)
	}
	return aggregates, nil
}
