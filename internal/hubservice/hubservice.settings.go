package hubservice

import (
	"context"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

const cameraSettingsCacheKey = "settings:camera"

// GetCameraSettings returns the stored camera settings merged over the
// defaults.
func (s *HubService) GetCameraSettings(ctx context.Context) (map[string]string, error) {
	var cached map[string]string
	if ok, err := s.cache.Get(ctx, cameraSettingsCacheKey, &cached); err != nil {
		nuts.L.Warnf("[HubService] Settings cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	rows, err := s.Configs.ListByCategory(ctx, models.SettingsCategoryCamera)
	if err != nil {
		return nil, err
	}
	settings := models.MergeCameraSettings(rows)

	if err := s.cache.Set(ctx, cameraSettingsCacheKey, settings, s.settingsTTL); err != nil {
		nuts.L.Warnf("[HubService] Settings cache write failed: %v", err)
	}
	return settings, nil
}

// SaveCameraSettings writes all five camera keys. Keys missing from the
// input get the built-in default, not the stored value.
func (s *HubService) SaveCameraSettings(ctx context.Context, caller *auth.Identity, in models.CameraSettingsInput) (int, error) {
	if !caller.IsAdmin() {
		return 0, errors.NewAuthorizationError("admin role required", nil)
	}

	now := s.now()
	rows := in.Resolve()
	written := make(map[string]string, len(rows))
	for i := range rows {
		row := rows[i]
		row.ID = nuts.NID("cfg", 12)
		row.UpdatedAt = now
		if err := s.Configs.Upsert(ctx, &row); err != nil {
			return i, err
		}
		written[row.Name] = row.Value
	}

	if err := s.cache.Delete(ctx, cameraSettingsCacheKey); err != nil {
		nuts.L.Warnf("[HubService] Settings cache invalidation failed: %v", err)
	}
	nuts.L.Infof("[HubService] Camera settings updated by %s", caller.Email)
	s.emit(EventSettingsUpdated, written)
	return len(rows), nil
}
