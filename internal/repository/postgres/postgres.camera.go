// FilePath: internal/repository/postgres/postgres.camera.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/database"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

type CameraImageRepo struct {
	PostgresBaseRepo
}

func NewCameraImageRepository(db database.DB) *CameraImageRepo {
	return &CameraImageRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *CameraImageRepo) Create(ctx context.Context, image *models.CameraImage) error {
	query := `
		INSERT INTO camera_images (
			id, image_url, thumbnail_url, gps_latitude, gps_longitude,
			robot_status, processed, captured_at, created_at
		) VALUES (
			:id, :image_url, :thumbnail_url, :gps_latitude, :gps_longitude,
			:robot_status, :processed, :captured_at, :created_at
		)`

	if _, err := r.db.GetDB().NamedExecContext(ctx, query, image); err != nil {
		return errors.NewDatabaseError("failed to create camera image", err)
	}
	return nil
}

// CreateDetections inserts all detections in one statement.
func (r *CameraImageRepo) CreateDetections(ctx context.Context, detections []models.Detection) error {
	if len(detections) == 0 {
		return nil
	}
	query := `
		INSERT INTO detections (
			id, camera_image_id, detection_type, confidence,
			bounding_box, notes, detected_at
		) VALUES (
			:id, :camera_image_id, :detection_type, :confidence,
			:bounding_box, :notes, :detected_at
		)`

	if _, err := r.db.GetDB().NamedExecContext(ctx, query, detections); err != nil {
		return errors.NewDatabaseError("failed to create detections", err)
	}
	return nil
}

func (r *CameraImageRepo) Get(ctx context.Context, id string) (*models.CameraImage, error) {
	image := &models.CameraImage{}
	query := `SELECT ` + imageColumns + ` FROM camera_images WHERE id = $1`

	if err := r.db.GetDB().GetContext(ctx, image, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("camera image not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get camera image", err)
	}

	if err := r.attachDetections(ctx, []*models.CameraImage{image}); err != nil {
		return nil, err
	}
	return image, nil
}

func (r *CameraImageRepo) List(ctx context.Context, filters models.ImageFilters) ([]*models.CameraImage, error) {
	query, args := buildImageListQuery(filters)

	images := []*models.CameraImage{}
	if err := r.db.GetDB().SelectContext(ctx, &images, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list camera images", err)
	}

	if err := r.attachDetections(ctx, images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *CameraImageRepo) attachDetections(ctx context.Context, images []*models.CameraImage) error {
	if len(images) == 0 {
		return nil
	}
	ids := make([]string, 0, len(images))
	byID := make(map[string]*models.CameraImage, len(images))
	for _, img := range images {
		img.Detections = []models.Detection{}
		ids = append(ids, img.ID)
		byID[img.ID] = img
	}

	detections := []models.Detection{}
	query := `
		SELECT id, camera_image_id, detection_type, confidence, bounding_box, notes, detected_at
		FROM detections
		WHERE camera_image_id = ANY($1)
		ORDER BY detected_at ASC`
	if err := r.db.GetDB().SelectContext(ctx, &detections, query, pq.Array(ids)); err != nil {
		return errors.NewDatabaseError("failed to load detections", err)
	}

	for _, d := range detections {
		if img, ok := byID[d.CameraImageID]; ok {
			img.Detections = append(img.Detections, d)
		}
	}
	return nil
}

// DeleteOlderThan removes captures and their detections inside tx.
func (r *CameraImageRepo) DeleteOlderThan(ctx context.Context, before time.Time, tx database.Transaction) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM detections
		WHERE camera_image_id IN (SELECT id FROM camera_images WHERE captured_at < $1)`, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old detections", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM camera_images WHERE captured_at < $1`, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old camera images", err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	nuts.L.Infof("[CameraImageRepo] Deleted %d camera images older than %v", rows, before)
	return rows, nil
}
