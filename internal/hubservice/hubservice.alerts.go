package hubservice

import (
	"context"
	"strings"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// AlertService handles anomaly alert queries and triage
type AlertService interface {
	ListAlerts(ctx context.Context, filters models.AlertFilters) ([]*models.AnomalyAlert, error)
	UpdateAlert(ctx context.Context, update models.AlertUpdate) (*models.AnomalyAlert, error)
}

// ListAlerts returns alerts newest first
func (s *HubService) ListAlerts(ctx context.Context, filters models.AlertFilters) ([]*models.AnomalyAlert, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, errors.NewValidationError("invalid status", nil)
	}
	if filters.Severity != "" && !filters.Severity.Valid() {
		return nil, errors.NewValidationError("invalid severity", nil)
	}
	if err := checkRange(filters.TimeRange); err != nil {
		return nil, err
	}
	filters.Limit = models.NormalizeLimit(filters.Limit, models.DefaultAlertLimit, models.MaxAlertLimit)
	return s.Alerts.List(ctx, filters)
}

// UpdateAlert changes status and/or assignee. Moving to RESOLVED stamps
// ResolvedAt; other transitions leave it as it was. An empty assignee id
// clears the assignment.
func (s *HubService) UpdateAlert(ctx context.Context, update models.AlertUpdate) (*models.AnomalyAlert, error) {
	if strings.TrimSpace(update.ID) == "" {
		return nil, errors.NewValidationError("id is required", nil)
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, errors.NewValidationError("invalid status", nil)
	}

	var assignee *models.User
	if update.AssignedUserID != nil && *update.AssignedUserID != "" {
		user, err := s.Users.Get(ctx, *update.AssignedUserID)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.NewNotFoundError("user not found", err)
			}
			return nil, err
		}
		assignee = user
	}

	alert, err := s.Alerts.Get(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if update.Status != nil {
		alert.Status = *update.Status
		if alert.Status == models.AlertStatusResolved {
			alert.ResolvedAt = &now
		}
	}
	if update.AssignedUserID != nil {
		if assignee != nil {
			alert.AssignedUserID = &assignee.ID
		} else {
			alert.AssignedUserID = nil
		}
	}
	alert.UpdatedAt = now

	if err := s.Alerts.Update(ctx, alert); err != nil {
		return nil, err
	}

	updated, err := s.Alerts.Get(ctx, alert.ID)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[HubService] Alert %s updated to %s", updated.ID, updated.Status)
	s.emit(EventAlertUpdated, updated)
	return updated, nil
}
