package resources

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
)

// CameraHandlers encapsulates the capture, image and frame HTTP handlers
type CameraHandlers struct {
	hubservice    *hubservice.HubService
	maxUploadSize int64
}

type imageQuery struct {
	WithDetections string `schema:"withDetections"`
	Latest         string `schema:"latest"`
	Limit          string `schema:"limit"`
	From           string `schema:"from"`
	To             string `schema:"to"`
}

type imageRequest struct {
	ID string `json:"id"`
}

type captureResponse struct {
	Success bool                 `json:"success"`
	Data    *models.CameraImage  `json:"data"`
	Alert   *models.AnomalyAlert `json:"alert"`
}

// @Summary Record a camera capture
// @Description Store a captured frame with its detections; raises an alert when a detection is confident enough
// @Tags camera
// @Accept json
// @Produce json
// @Param capture body models.CaptureRequest true "Capture report"
// @Success 200 {object} captureResponse
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /camera/capture [post]
// @Security BearerAuth
func (h *CameraHandlers) Capture(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req models.CaptureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.RecordCapture(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err, "failed to record capture", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, captureResponse{
		Success: true,
		Data:    result.Image,
		Alert:   result.Alert,
	})
}

// @Summary List camera images
// @Description List captures with detections, oldest first unless latest=true
// @Tags camera
// @Produce json
// @Param withDetections query bool false "Only processed captures"
// @Param latest query bool false "Newest first"
// @Param limit query int false "Maximum results (default 10, capped at 100)"
// @Param from query string false "Captured at or after"
// @Param to query string false "Captured at or before"
// @Success 200 {array} models.CameraImage
// @Failure 400 {object} errors.APIError
// @Router /camera [get]
// @Security BearerAuth
func (h *CameraHandlers) ListImages(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q imageQuery
	if err := decodeQuery(r, &q); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	tr, apiErr := parseRange(q.From, q.To)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	images, err := h.hubservice.ListImages(r.Context(), models.ImageFilters{
		WithDetections: q.WithDetections == "true",
		Latest:         q.Latest == "true",
		TimeRange:      tr,
		Limit:          models.ClampLimit(q.Limit, models.DefaultImageLimit, models.MaxImageLimit),
	})
	if err != nil {
		respondWithServiceError(w, err, "failed to list camera images", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, images)
}

// @Summary Get a camera image
// @Description Fetch one capture with its detections
// @Tags camera
// @Accept json
// @Produce json
// @Param request body imageRequest true "Image id"
// @Success 200 {object} models.CameraImage
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /camera [post]
// @Security BearerAuth
func (h *CameraHandlers) GetImage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	image, err := h.hubservice.GetImage(r.Context(), req.ID)
	if err != nil {
		respondWithServiceError(w, err, "failed to get camera image", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, image)
}

// @Summary Upload a frame
// @Description Store a JPEG or PNG frame; the returned imageUrl can be used in a capture report
// @Tags camera
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Frame to upload"
// @Success 201 {object} successResponse
// @Failure 400 {object} errors.APIError
// @Router /camera/frames [post]
// @Security DeviceKey
func (h *CameraHandlers) UploadFrame(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondWithError(w, errors.NewValidationError("file too large or malformed upload", err).WithRequestID(requestID))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid file upload", err).WithRequestID(requestID))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	frame, err := h.hubservice.SaveFrame(r.Context(), header.Filename, mimeType, file)
	if err != nil {
		respondWithServiceError(w, err, "failed to store frame", requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse{Success: true, Data: frame})
}

// @Summary Download a frame
// @Description Stream a stored frame
// @Tags camera
// @Produce image/jpeg,image/png
// @Param path path string true "Frame name as returned by the upload"
// @Success 200 {file} binary
// @Failure 404 {object} errors.APIError
// @Router /camera/frames/{path} [get]
// @Security BearerAuth
func (h *CameraHandlers) ServeFrame(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	name := mux.Vars(r)["path"]

	rc, frame, err := h.hubservice.OpenFrame(r.Context(), name)
	if err != nil {
		respondWithServiceError(w, err, "failed to open frame", requestID)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", frame.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(frame.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		nuts.L.Warnf("[API] Streaming frame %s aborted: %v", frame.Name, err)
	}
}
