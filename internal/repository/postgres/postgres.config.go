// FilePath: internal/repository/postgres/postgres.config.go
package postgres

import (
	"context"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

type ConfigRepo struct {
	PostgresBaseRepo
}

func NewConfigRepository(db database.DB) *ConfigRepo {
	return &ConfigRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *ConfigRepo) ListByCategory(ctx context.Context, category string) ([]*models.RaspberryPiConfig, error) {
	rows := []*models.RaspberryPiConfig{}
	query := `
		SELECT id, name, value, category, updated_at
		FROM raspberry_pi_configs
		WHERE category = $1
		ORDER BY name`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query, category); err != nil {
		return nil, errors.NewDatabaseError("failed to list config", err)
	}
	return rows, nil
}

// Upsert writes the row by name. An existing row keeps its id.
func (r *ConfigRepo) Upsert(ctx context.Context, row *models.RaspberryPiConfig) error {
	query := `
		INSERT INTO raspberry_pi_configs (id, name, value, category, updated_at)
		VALUES (:id, :name, :value, :category, :updated_at)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.GetDB().NamedExecContext(ctx, query, row); err != nil {
		return errors.NewDatabaseError("failed to upsert config "+row.Name, err)
	}
	return nil
}
