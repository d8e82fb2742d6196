package anomaly

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/models"
)

func fixedDeriver() *Deriver {
	now := time.Date(2024, 6, 1, 14, 5, 9, 0, time.UTC)
	return &Deriver{Now: func() time.Time { return now }, Location: time.UTC}
}

func det(kind string, conf float64) models.DetectionInput {
	return models.DetectionInput{Type: kind, Confidence: conf}
}

func TestDeriveNoAlertWithoutQualifyingDetection(t *testing.T) {
	d := fixedDeriver()
	cases := [][]models.DetectionInput{
		nil,
		{},
		{det("person", 0.5)},
		{det("person", 0.7), det("dog", 0.69)},
	}
	for i, detections := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Nil(t, d.Derive(Capture{ImageURL: "/f.jpg", Detections: detections}))
		})
	}
}

func TestDeriveHighSeverityPicksStrongest(t *testing.T) {
	lat, lon := 41.01, 28.97
	alert := fixedDeriver().Derive(Capture{
		ImageURL:     "/frames/a.jpg",
		GPSLatitude:  &lat,
		GPSLongitude: &lon,
		Detections:   []models.DetectionInput{det("person", 0.95), det("vehicle", 0.72)},
	})
	require.NotNil(t, alert)

	assert.Equal(t, "person Detected", alert.Title)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, models.AlertStatusNew, alert.Status)
	assert.Equal(t, &lat, alert.GPSLatitude)
	assert.Equal(t, &lon, alert.GPSLongitude)
	require.Len(t, alert.RelatedImages, 1)
	assert.Equal(t, "/frames/a.jpg", alert.RelatedImages[0].ImageURL)
}

func TestDeriveSeverityBoundaries(t *testing.T) {
	tests := []struct {
		conf float64
		want models.Severity
	}{
		{0.71, models.SeverityMedium},
		{0.9, models.SeverityMedium},
		{0.9001, models.SeverityHigh},
		{1.0, models.SeverityHigh},
	}
	for _, tt := range tests {
		alert := fixedDeriver().Derive(Capture{Detections: []models.DetectionInput{det("fire", tt.conf)}})
		require.NotNil(t, alert, "conf=%v", tt.conf)
		assert.Equal(t, tt.want, alert.Severity, "conf=%v", tt.conf)
	}
}

func TestDeriveTieKeepsFirst(t *testing.T) {
	alert := fixedDeriver().Derive(Capture{
		Detections: []models.DetectionInput{det("a", 0.5), det("first", 0.8), det("second", 0.8)},
	})
	require.NotNil(t, alert)
	assert.Equal(t, "first Detected", alert.Title)
}

func TestDeriveDescription(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	alert := fixedDeriver().Derive(Capture{
		Detections: []models.DetectionInput{{
			Type:        "person",
			Confidence:  0.875,
			BoundingBox: &models.BoundingBox{X: 12.5, Y: 40, Width: 10, Height: 20},
			Timestamp:   &ts,
		}},
	})
	require.NotNil(t, alert)
	assert.Equal(t, "Confidence: 87.50% | Location: [12.5,40] | Time: 09:30:00", alert.Description)

	alert = fixedDeriver().Derive(Capture{Detections: []models.DetectionInput{det("smoke", 0.75)}})
	require.NotNil(t, alert)
	assert.Equal(t, "Confidence: 75.00% | Location: Unknown location | Time: 14:05:09", alert.Description)
}

func TestDeriveDescriptionUsesDisplayZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	d := fixedDeriver()
	d.Location = zone

	alert := d.Derive(Capture{Detections: []models.DetectionInput{det("smoke", 0.75)}})
	require.NotNil(t, alert)
	assert.Contains(t, alert.Description, "Time: 17:05:09")
}

func TestDeriveExactlyOneAlertWhenAnyQualifies(t *testing.T) {
	for n := 1; n <= 20; n++ {
		detections := make([]models.DetectionInput, 0, n)
		var max float64
		for i := 0; i < n; i++ {
			c := 0.6 + float64((i*37)%40)/100
			if c > max {
				max = c
			}
			detections = append(detections, det(fmt.Sprintf("t%d", i), c))
		}
		alert := fixedDeriver().Derive(Capture{Detections: detections})
		if max <= AlertThreshold {
			assert.Nil(t, alert)
			continue
		}
		require.NotNil(t, alert)
		assert.Equal(t, max > HighSeverityThreshold, alert.Severity == models.SeverityHigh)
	}
}
