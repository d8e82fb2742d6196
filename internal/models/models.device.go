// FilePath: internal/models/models.device.go
package models

// GPSData is a fix reported by the device's GPS endpoint.
type GPSData struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Altitude       float64 `json:"altitude"`
	Time           string  `json:"time"`
	Satellites     int     `json:"satellites"`
	SignalStrength float64 `json:"signalStrength"`
}

// GPSResponse is the envelope returned by the device's GPS endpoint.
type GPSResponse struct {
	Data  []GPSData `json:"data"`
	Error string    `json:"error,omitempty"`
}

// CameraSnapshot is the device's live frame, a base64 encoded JPEG.
type CameraSnapshot struct {
	Image string `json:"image"`
}
