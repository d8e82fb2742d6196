package server

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/repository"
	"github.com/robowatch/hub/internal/repository/memory"
	"github.com/robowatch/hub/internal/repository/postgres"
	"github.com/robowatch/hub/internal/repository/timescale"
)

// Stores bundles the repositories selected by database.driver
type Stores struct {
	SensorData repository.SensorDataRepository
	Images     repository.CameraImageRepository
	Alerts     repository.AlertRepository
	Configs    repository.ConfigRepository
	Users      repository.UserRepository

	dbs []database.DB
}

// OpenStores connects the configured backend and brings its schema up to
// date. The memory driver keeps everything in process.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		nuts.L.Warnf("[Server] Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Stores{
			SensorData: memory.NewSensorDataRepository(store),
			Images:     memory.NewCameraImageRepository(store),
			Alerts:     memory.NewAlertRepository(store),
			Configs:    memory.NewConfigRepository(store),
			Users:      memory.NewUserRepository(store),
		}, nil
	}

	appDB, err := database.NewPostgresDB(ctx, cfg.Database.AppDB)
	if err != nil {
		return nil, err
	}
	s := &Stores{dbs: []database.DB{appDB}}
	if err := database.Migrate(ctx, appDB); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate app database: %w", err)
	}

	s.Images = postgres.NewCameraImageRepository(appDB)
	s.Alerts = postgres.NewAlertRepository(appDB)
	s.Configs = postgres.NewConfigRepository(appDB)
	s.Users = postgres.NewUserRepository(appDB)
	s.SensorData = postgres.NewSensorDataRepository(appDB)

	if cfg.Database.UseTimescale() {
		tsdb, err := database.NewTimescaleDB(ctx, cfg.Database.TimescaleDB)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.dbs = append(s.dbs, tsdb)
		sensorData, err := timescale.NewSensorDataRepository(ctx, tsdb)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize timescale schema: %w", err)
		}
		s.SensorData = sensorData
	}
	return s, nil
}

// Close releases database connections
func (s *Stores) Close() {
	for _, db := range s.dbs {
		if err := db.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing database: %v", err)
		}
	}
	s.dbs = nil
}
