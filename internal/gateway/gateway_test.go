package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

const deviceURL = "http://raspberry-pi-ip:5000"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := New(config.DeviceConfig{BaseURL: deviceURL, Timeout: time.Second})
	httpmock.ActivateNonDefault(c.http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestCameraPassthrough(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, deviceURL+"/camera",
		httpmock.NewStringResponder(http.StatusOK, `{"image":"aGVsbG8="}`))

	raw, err := c.Camera(context.Background())
	require.NoError(t, err)

	var snap models.CameraSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "aGVsbG8=", snap.Image)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestGPSPassthroughKeepsUnknownFields(t *testing.T) {
	c := newMockedClient(t)
	body := `{"data":[{"latitude":41.0,"longitude":29.0,"altitude":12.5,"time":"12:00:00","satellites":7,"signalStrength":0.8}],"fixQuality":2}`
	httpmock.RegisterResponder(http.MethodGet, deviceURL+"/gps", httpmock.NewStringResponder(http.StatusOK, body))

	raw, err := c.GPS(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, body, string(raw))

	var gps models.GPSResponse
	require.NoError(t, json.Unmarshal(raw, &gps))
	require.Len(t, gps.Data, 1)
	assert.Equal(t, 7, gps.Data[0].Satellites)
}

func TestUpstreamFailures(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, deviceURL+"/camera",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":"busy"}`))
	httpmock.RegisterResponder(http.MethodGet, deviceURL+"/gps",
		httpmock.NewStringResponder(http.StatusOK, `not json`))

	_, err := c.Camera(context.Background())
	require.Error(t, err)
	apiErr := errors.AsAPIError(err, "")
	assert.Equal(t, errors.ErrorTypeUpstream, apiErr.Type)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, "Failed to fetch camera data", apiErr.Message)

	_, err = c.GPS(context.Background())
	assert.Equal(t, "Failed to fetch GPS data", errors.AsAPIError(err, "").Message)
}

func TestUnreachableDevice(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, deviceURL+"/gps", httpmock.NewErrorResponder(assert.AnError))

	_, err := c.GPS(context.Background())
	assert.Equal(t, errors.ErrorTypeUpstream, errors.AsAPIError(err, "").Type)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
