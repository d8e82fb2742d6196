// FilePath: internal/repository/postgres/postgres.alert.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

type AlertRepo struct {
	PostgresBaseRepo
}

func NewAlertRepository(db database.DB) *AlertRepo {
	return &AlertRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

// Create inserts the alert and its related images in one transaction.
func (r *AlertRepo) Create(ctx context.Context, alert *models.AnomalyAlert) error {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO anomaly_alerts (
			id, title, description, severity, status, gps_latitude, gps_longitude,
			assigned_user_id, resolved_at, created_at, updated_at
		) VALUES (
			:id, :title, :description, :severity, :status, :gps_latitude, :gps_longitude,
			:assigned_user_id, :resolved_at, :created_at, :updated_at
		)`
	if _, err := tx.NamedExecContext(ctx, query, alert); err != nil {
		return errors.NewDatabaseError("failed to create alert", err)
	}

	if len(alert.RelatedImages) > 0 {
		imgQuery := `
			INSERT INTO alert_images (id, anomaly_alert_id, image_url, added_at)
			VALUES (:id, :anomaly_alert_id, :image_url, :added_at)`
		if _, err := tx.NamedExecContext(ctx, imgQuery, alert.RelatedImages); err != nil {
			return errors.NewDatabaseError("failed to create alert images", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

func (r *AlertRepo) Get(ctx context.Context, id string) (*models.AnomalyAlert, error) {
	alert := &models.AnomalyAlert{}
	query := `SELECT ` + alertColumns + ` FROM anomaly_alerts WHERE id = $1`

	if err := r.db.GetDB().GetContext(ctx, alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("alert not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get alert", err)
	}

	if err := r.attachRelations(ctx, []*models.AnomalyAlert{alert}); err != nil {
		return nil, err
	}
	return alert, nil
}

func (r *AlertRepo) List(ctx context.Context, filters models.AlertFilters) ([]*models.AnomalyAlert, error) {
	query, args := buildAlertListQuery(filters)

	alerts := []*models.AnomalyAlert{}
	if err := r.db.GetDB().SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list alerts", err)
	}

	if err := r.attachRelations(ctx, alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *AlertRepo) Update(ctx context.Context, alert *models.AnomalyAlert) error {
	query := `
		UPDATE anomaly_alerts SET
			status = :status,
			assigned_user_id = :assigned_user_id,
			resolved_at = :resolved_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, alert)
	if err != nil {
		return errors.NewDatabaseError("failed to update alert", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NewNotFoundError("alert not found", nil)
	}
	return nil
}

// attachRelations loads related images and assignee summaries for alerts.
func (r *AlertRepo) attachRelations(ctx context.Context, alerts []*models.AnomalyAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(alerts))
	userIDs := []string{}
	byID := make(map[string]*models.AnomalyAlert, len(alerts))
	for _, a := range alerts {
		a.RelatedImages = []models.AlertImage{}
		ids = append(ids, a.ID)
		byID[a.ID] = a
		if a.AssignedUserID != nil {
			userIDs = append(userIDs, *a.AssignedUserID)
		}
	}

	images := []models.AlertImage{}
	imgQuery := `
		SELECT id, anomaly_alert_id, image_url, added_at
		FROM alert_images
		WHERE anomaly_alert_id = ANY($1)
		ORDER BY added_at ASC`
	if err := r.db.GetDB().SelectContext(ctx, &images, imgQuery, pq.Array(ids)); err != nil {
		return errors.NewDatabaseError("failed to load alert images", err)
	}
	for _, img := range images {
		if a, ok := byID[img.AnomalyAlertID]; ok {
			a.RelatedImages = append(a.RelatedImages, img)
		}
	}

	if len(userIDs) == 0 {
		return nil
	}
	users := []*models.UserSummary{}
	userQuery := `SELECT id, name, email FROM users WHERE id = ANY($1)`
	if err := r.db.GetDB().SelectContext(ctx, &users, userQuery, pq.Array(userIDs)); err != nil {
		return errors.NewDatabaseError("failed to load assigned users", err)
	}
	usersByID := make(map[string]*models.UserSummary, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	for _, a := range alerts {
		if a.AssignedUserID != nil {
			a.AssignedUser = usersByID[*a.AssignedUserID]
		}
	}
	return nil
}
