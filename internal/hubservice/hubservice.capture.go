package hubservice

import (
	"context"
	"io"
	"strings"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/anomaly"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// CaptureService handles camera captures and frames
type CaptureService interface {
	RecordCapture(ctx context.Context, req models.CaptureRequest) (*models.CaptureResult, error)
	ListImages(ctx context.Context, filters models.ImageFilters) ([]*models.CameraImage, error)
	GetImage(ctx context.Context, id string) (*models.CameraImage, error)
	SaveFrame(ctx context.Context, filename, mimeType string, src io.Reader) (*models.Frame, error)
	OpenFrame(ctx context.Context, name string) (io.ReadCloser, *models.Frame, error)
}

// RecordCapture stores the image, its detections and the derived alert.
// The three writes are independent: a failure part way leaves the earlier
// rows in place.
func (s *HubService) RecordCapture(ctx context.Context, req models.CaptureRequest) (*models.CaptureResult, error) {
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		return nil, errors.NewValidationError("imageUrl is required", nil)
	}
	for i, det := range req.Detections {
		if strings.TrimSpace(det.Type) == "" {
			return nil, errors.NewValidationError("detection type is required", nil).
				WithDetails(map[string]int{"index": i})
		}
		if det.Confidence < 0 || det.Confidence > 1 {
			return nil, errors.NewValidationError("detection confidence must be between 0 and 1", nil).
				WithDetails(map[string]int{"index": i})
		}
	}

	now := s.now()
	capturedAt := now
	if req.CaptureTimestamp != nil {
		capturedAt = *req.CaptureTimestamp
	}

	image := &models.CameraImage{
		ID:           nuts.NID("img", 12),
		ImageURL:     req.ImageURL,
		ThumbnailURL: req.ThumbnailURL,
		GPSLatitude:  req.GPSLatitude,
		GPSLongitude: req.GPSLongitude,
		RobotStatus:  req.RobotStatus,
		Processed:    req.Detections != nil,
		CapturedAt:   capturedAt,
		CreatedAt:    now,
		Detections:   []models.Detection{},
	}
	if err := s.Images.Create(ctx, image); err != nil {
		return nil, err
	}

	if len(req.Detections) > 0 {
		detections := make([]models.Detection, 0, len(req.Detections))
		for _, in := range req.Detections {
			detectedAt := now
			if in.Timestamp != nil {
				detectedAt = *in.Timestamp
			}
			detections = append(detections, models.Detection{
				ID:            nuts.NID("det", 12),
				CameraImageID: image.ID,
				DetectionType: in.Type,
				Confidence:    in.Confidence,
				BoundingBox:   in.BoundingBox,
				Notes:         in.Notes,
				DetectedAt:    detectedAt,
			})
		}
		if err := s.Images.CreateDetections(ctx, detections); err != nil {
			nuts.L.Errorf("[HubService] Image %s stored without detections: %v", image.ID, err)
			return nil, err
		}
		image.Detections = detections
	}

	result := &models.CaptureResult{Image: image}

	alert := s.deriver.Derive(anomaly.Capture{
		ImageURL:     image.ImageURL,
		GPSLatitude:  image.GPSLatitude,
		GPSLongitude: image.GPSLongitude,
		Detections:   req.Detections,
	})
	if alert != nil {
		alert.ID = nuts.NID("al", 12)
		alert.CreatedAt = now
		alert.UpdatedAt = now
		for i := range alert.RelatedImages {
			alert.RelatedImages[i].ID = nuts.NID("ali", 12)
			alert.RelatedImages[i].AnomalyAlertID = alert.ID
		}
		if err := s.Alerts.Create(ctx, alert); err != nil {
			nuts.L.Errorf("[HubService] Image %s stored without its alert: %v", image.ID, err)
			return nil, err
		}
		result.Alert = alert
		nuts.L.Infof("[HubService] %s alert %s raised from image %s", alert.Severity, alert.ID, image.ID)
		s.emit(EventAlertCreated, alert)
	}

	nuts.L.Infof("[HubService] Recorded capture %s with %d detections", image.ID, len(image.Detections))
	s.emit(EventCaptureRecorded, image)
	return result, nil
}

// ListImages returns captures ordered by capture time
func (s *HubService) ListImages(ctx context.Context, filters models.ImageFilters) ([]*models.CameraImage, error) {
	if err := checkRange(filters.TimeRange); err != nil {
		return nil, err
	}
	filters.Limit = models.NormalizeLimit(filters.Limit, models.DefaultImageLimit, models.MaxImageLimit)
	return s.Images.List(ctx, filters)
}

// GetImage returns one capture with its detections
func (s *HubService) GetImage(ctx context.Context, id string) (*models.CameraImage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidationError("id is required", nil)
	}
	return s.Images.Get(ctx, id)
}

// SaveFrame stores an uploaded frame file
func (s *HubService) SaveFrame(ctx context.Context, filename, mimeType string, src io.Reader) (*models.Frame, error) {
	frame, err := s.Frames.Save(ctx, filename, mimeType, src)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[HubService] Stored frame %s (%d bytes)", frame.Name, frame.Size)
	return frame, nil
}

// OpenFrame opens a stored frame for streaming. The caller closes it.
func (s *HubService) OpenFrame(ctx context.Context, name string) (io.ReadCloser, *models.Frame, error) {
	return s.Frames.Open(ctx, name)
}

func checkRange(tr models.TimeRange) error {
	if tr.From != nil && tr.To != nil && tr.To.Before(*tr.From) {
		return errors.NewValidationError("from must not be after to", nil)
	}
	return nil
}
