// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

const (
	defaultMaxFileSize = 10 * 1024 * 1024 // 10MB
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// FileConfig holds configuration for the frame storage
type FileConfig struct {
	BasePath    string
	MaxFileSize int64
	AllowedMime []string
	// URLPrefix is prepended to stored names to form the public image URL.
	URLPrefix string
}

// FrameRepo stores uploaded frames on the local filesystem under
// BasePath/YYYY/MM/DD.
type FrameRepo struct {
	config FileConfig
	now    func() time.Time
}

// NewFrameRepository creates a new frame storage repository
func NewFrameRepository(config FileConfig) (*FrameRepo, error) {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = defaultMaxFileSize
	}
	if err := createDirectoryIfNotExists(config.BasePath); err != nil {
		return nil, err
	}
	return &FrameRepo{config: config, now: time.Now}, nil
}

func (r *FrameRepo) Save(ctx context.Context, filename, mimeType string, src io.Reader) (*models.Frame, error) {
	if !r.isAllowedMimeType(mimeType) {
		return nil, errors.NewValidationError("unsupported file type", nil)
	}

	now := r.now().UTC()
	name := r.generateName(now, mimeType)
	fullPath := filepath.Join(r.config.BasePath, filepath.FromSlash(name))
	if err := createDirectoryIfNotExists(filepath.Dir(fullPath)); err != nil {
		return nil, err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, errors.NewInternalError("failed to create destination file", err)
	}

	// Read one byte past the limit to detect oversized uploads.
	written, err := io.Copy(dst, io.LimitReader(src, r.config.MaxFileSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, errors.NewInternalError("failed to copy file", err)
	}
	if written > r.config.MaxFileSize {
		os.Remove(fullPath)
		return nil, errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}

	nuts.L.Infof("[FrameRepo] Stored frame %s (%d bytes, uploaded as %q)", name, written, filename)
	return &models.Frame{
		Name:     name,
		ImageURL: r.config.URLPrefix + "/" + name,
		Size:     written,
		MimeType: mimeType,
		StoredAt: now,
	}, nil
}

func (r *FrameRepo) Open(ctx context.Context, name string) (io.ReadCloser, *models.Frame, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, nil, errors.NewValidationError("invalid frame name", nil)
	}

	fullPath := filepath.Join(r.config.BasePath, filepath.FromSlash(clean))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewNotFoundError("frame not found", err)
		}
		return nil, nil, errors.NewInternalError("failed to open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.NewInternalError("failed to stat file", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, errors.NewNotFoundError("frame not found", nil)
	}

	return f, &models.Frame{
		Name:     clean,
		ImageURL: r.config.URLPrefix + "/" + clean,
		Size:     info.Size(),
		MimeType: mimeFromExtension(clean),
		StoredAt: info.ModTime(),
	}, nil
}

func (r *FrameRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	var deletedCount int
	err := filepath.Walk(r.config.BasePath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(p); err != nil {
				nuts.L.Errorf("[FrameRepo] Failed to delete old frame %s: %v", p, err)
				return nil
			}
			deletedCount++
		}
		return nil
	})

	if err != nil {
		return deletedCount, errors.NewInternalError("failed to delete old frames", err)
	}

	nuts.L.Infof("[FrameRepo] Deleted %d frames older than %v", deletedCount, before)
	return deletedCount, nil
}

func (r *FrameRepo) generateName(now time.Time, mimeType string) string {
	filename := fmt.Sprintf("%s_%s%s", now.Format(defaultDateFormat), nuts.NID("frm", 12), mimeExtensions[mimeType])
	return path.Join(now.Format("2006"), now.Format("01"), now.Format("02"), filename)
}

func (r *FrameRepo) isAllowedMimeType(mimeType string) bool {
	if _, known := mimeExtensions[mimeType]; !known {
		return false
	}
	for _, allowed := range r.config.AllowedMime {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

// cleanName rejects absolute names and names escaping the base path.
func cleanName(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", false
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}

func mimeFromExtension(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func createDirectoryIfNotExists(p string) error {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := os.MkdirAll(p, defaultPermissions); err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
