// FilePath: internal/models/models.camera.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CameraImage is one captured frame reported by the device.
type CameraImage struct {
	ID           string      `json:"id" db:"id"`
	ImageURL     string      `json:"imageUrl" db:"image_url"`
	ThumbnailURL *string     `json:"thumbnailUrl" db:"thumbnail_url"`
	GPSLatitude  *float64    `json:"gpsLatitude" db:"gps_latitude"`
	GPSLongitude *float64    `json:"gpsLongitude" db:"gps_longitude"`
	RobotStatus  *string     `json:"robotStatus" db:"robot_status"`
	Processed    bool        `json:"processed" db:"processed"`
	CapturedAt   time.Time   `json:"capturedAt" db:"captured_at"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	Detections   []Detection `json:"detections" db:"-"`
}

// Detection is one classified object found in a capture.
type Detection struct {
	ID            string       `json:"id" db:"id"`
	CameraImageID string       `json:"cameraImageId" db:"camera_image_id"`
	DetectionType string       `json:"detectionType" db:"detection_type"`
	Confidence    float64      `json:"confidence" db:"confidence"`
	BoundingBox   *BoundingBox `json:"boundingBox" db:"bounding_box"`
	Notes         *string      `json:"notes" db:"notes"`
	DetectedAt    time.Time    `json:"detectedAt" db:"detected_at"`
}

// BoundingBox holds percentages of the frame size. It is stored as JSONB.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Value implements driver.Valuer
func (b BoundingBox) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner
func (b *BoundingBox) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BoundingBox", src)
	}
	return json.Unmarshal(raw, b)
}

// DetectionInput is a detection as reported in a capture request.
type DetectionInput struct {
	Type        string       `json:"type"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// CaptureRequest is the body of a capture report. A nil Detections slice
// means the field was absent; an empty one still marks the frame processed.
type CaptureRequest struct {
	ImageURL         string           `json:"imageUrl"`
	ThumbnailURL     *string          `json:"thumbnailUrl,omitempty"`
	GPSLatitude      *float64         `json:"gpsLatitude,omitempty"`
	GPSLongitude     *float64         `json:"gpsLongitude,omitempty"`
	RobotStatus      *string          `json:"robotStatus,omitempty"`
	Detections       []DetectionInput `json:"detections,omitempty"`
	CaptureTimestamp *time.Time       `json:"captureTimestamp,omitempty"`
}

// CaptureResult is what a capture produced.
type CaptureResult struct {
	Image *CameraImage  `json:"image"`
	Alert *AnomalyAlert `json:"alert"`
}

// Frame describes an uploaded image file held by the frame store.
type Frame struct {
	Name     string    `json:"name"`
	ImageURL string    `json:"imageUrl"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mimeType"`
	StoredAt time.Time `json:"storedAt"`
}
