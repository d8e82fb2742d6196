// FilePath: internal/models/models.alert.go
package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "NEW"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusInProgress   AlertStatus = "IN_PROGRESS"
	AlertStatusResolved     AlertStatus = "RESOLVED"
	AlertStatusFalseAlarm   AlertStatus = "FALSE_ALARM"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusNew, AlertStatusAcknowledged, AlertStatusInProgress, AlertStatusResolved, AlertStatusFalseAlarm:
		return true
	}
	return false
}

// AnomalyAlert signals a noteworthy detection.
type AnomalyAlert struct {
	ID             string       `json:"id" db:"id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description" db:"description"`
	Severity       Severity     `json:"severity" db:"severity"`
	Status         AlertStatus  `json:"status" db:"status"`
	GPSLatitude    *float64     `json:"gpsLatitude" db:"gps_latitude"`
	GPSLongitude   *float64     `json:"gpsLongitude" db:"gps_longitude"`
	AssignedUserID *string      `json:"assignedUserId" db:"assigned_user_id"`
	ResolvedAt     *time.Time   `json:"resolvedAt" db:"resolved_at"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
	AssignedUser   *UserSummary `json:"assignedUser" db:"-"`
	RelatedImages  []AlertImage `json:"relatedImages" db:"-"`
}

// AlertImage is a copy of an image URL attached to an alert. It does not
// reference camera_images, so alerts survive image pruning.
type AlertImage struct {
	ID             string    `json:"id" db:"id"`
	AnomalyAlertID string    `json:"anomalyAlertId" db:"anomaly_alert_id"`
	ImageURL       string    `json:"imageUrl" db:"image_url"`
	AddedAt        time.Time `json:"addedAt" db:"added_at"`
}

// AlertUpdate is the body of an alert patch.
type AlertUpdate struct {
	ID             string       `json:"id"`
	Status         *AlertStatus `json:"status,omitempty"`
	AssignedUserID *string      `json:"assignedUserId,omitempty"`
}
