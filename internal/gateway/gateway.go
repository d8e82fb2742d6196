// Package gateway talks to the field device's HTTP surface.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/errors"
)

const (
	cameraPath = "/camera"
	gpsPath    = "/gps"

	msgCameraFailed = "Failed to fetch camera data"
	msgGPSFailed    = "Failed to fetch GPS data"
)

// Client fetches live snapshots from the device. Calls are not retried.
type Client struct {
	http *resty.Client
}

func New(cfg config.DeviceConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: client}
}

// Camera returns the device's current frame payload unchanged.
func (c *Client) Camera(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, cameraPath, msgCameraFailed)
}

// GPS returns the device's current GPS payload unchanged.
func (c *Client) GPS(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, gpsPath, msgGPSFailed)
}

func (c *Client) fetch(ctx context.Context, path, failMsg string) (json.RawMessage, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		nuts.L.Errorf("[Gateway] GET %s failed: %v", path, err)
		return nil, errors.NewUpstreamError(failMsg, err)
	}
	if !resp.IsSuccess() {
		nuts.L.Errorf("[Gateway] GET %s returned %d", path, resp.StatusCode())
		return nil, errors.NewUpstreamError(failMsg, fmt.Errorf("device returned status %d", resp.StatusCode()))
	}
	body := resp.Body()
	if !json.Valid(body) {
		return nil, errors.NewUpstreamError(failMsg, fmt.Errorf("device returned invalid JSON"))
	}
	return json.RawMessage(body), nil
}
