package hubservice

import (
	"context"
	"encoding/json"
)

// RobotCamera relays the device's live camera payload.
func (s *HubService) RobotCamera(ctx context.Context) (json.RawMessage, error) {
	payload, err := s.gateway.Camera(ctx)
	if err != nil {
		s.emit(EventGatewayFailed, "camera")
		return nil, err
	}
	return payload, nil
}

// RobotGPS relays the device's live GPS payload.
func (s *HubService) RobotGPS(ctx context.Context) (json.RawMessage, error) {
	payload, err := s.gateway.GPS(ctx)
	if err != nil {
		s.emit(EventGatewayFailed, "gps")
		return nil, err
	}
	return payload, nil
}
