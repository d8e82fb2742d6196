// Package anomaly turns capture detections into anomaly alerts.
package anomaly

import (
	"fmt"
	"time"

	"github.com/robowatch/hub/internal/models"
)

const (
	// AlertThreshold is the confidence a detection must exceed to raise an alert.
	AlertThreshold = 0.7
	// HighSeverityThreshold is the confidence above which the alert is HIGH.
	HighSeverityThreshold = 0.9

	unknownLocation = "Unknown location"
	timeOfDayLayout = "15:04:05"
)

// Capture is the part of a capture report the rule looks at.
type Capture struct {
	ImageURL     string
	GPSLatitude  *float64
	GPSLongitude *float64
	Detections   []models.DetectionInput
}

// Deriver builds alerts. Now and Location are the clock and display zone
// used for the description when a detection has no timestamp.
type Deriver struct {
	Now      func() time.Time
	Location *time.Location
}

// NewDeriver returns a Deriver using the wall clock in loc.
func NewDeriver(loc *time.Location) *Deriver {
	if loc == nil {
		loc = time.Local
	}
	return &Deriver{Now: time.Now, Location: loc}
}

// Derive returns the alert for a capture, or nil when no detection is
// confident enough. The alert has no ID yet.
func (d *Deriver) Derive(c Capture) *models.AnomalyAlert {
	top, ok := Strongest(c.Detections)
	if !ok {
		return nil
	}

	now := d.Now()
	detectedAt := now
	if top.Timestamp != nil {
		detectedAt = *top.Timestamp
	}

	return &models.AnomalyAlert{
		Title:        fmt.Sprintf("%s Detected", top.Type),
		Description:  d.describe(top, detectedAt),
		Severity:     SeverityFor(top.Confidence),
		Status:       models.AlertStatusNew,
		GPSLatitude:  c.GPSLatitude,
		GPSLongitude: c.GPSLongitude,
		RelatedImages: []models.AlertImage{
			{ImageURL: c.ImageURL, AddedAt: now},
		},
	}
}

// Strongest picks the most confident detection above AlertThreshold. On a
// tie the earliest detection in input order wins.
func Strongest(detections []models.DetectionInput) (models.DetectionInput, bool) {
	var (
		best  models.DetectionInput
		found bool
	)
	for _, det := range detections {
		if det.Confidence <= AlertThreshold {
			continue
		}
		if !found || det.Confidence > best.Confidence {
			best = det
			found = true
		}
	}
	return best, found
}

// SeverityFor maps a qualifying confidence to a severity. LOW and CRITICAL
// are never produced here.
func SeverityFor(confidence float64) models.Severity {
	if confidence > HighSeverityThreshold {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

func (d *Deriver) describe(det models.DetectionInput, at time.Time) string {
	location := unknownLocation
	if det.BoundingBox != nil {
		location = fmt.Sprintf("[%s,%s]", formatCoord(det.BoundingBox.X), formatCoord(det.BoundingBox.Y))
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("Confidence: %.2f%% | Location: %s | Time: %s",
		det.Confidence*100, location, at.In(loc).Format(timeOfDayLayout))
}

// formatCoord prints box coordinates without trailing zeros.
func formatCoord(v float64) string {
	return fmt.Sprintf("%g", v)
}
