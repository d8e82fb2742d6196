package files

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/errors"
)

func newRepo(t *testing.T, max int64) *FrameRepo {
	t.Helper()
	repo, err := NewFrameRepository(FileConfig{
		BasePath:    t.TempDir(),
		MaxFileSize: max,
		AllowedMime: []string{"image/jpeg", "image/png"},
		URLPrefix:   "/api/v1/camera/frames",
	})
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func TestSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 1024)

	frame, err := repo.Save(ctx, "cam.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frame.Name, "2024/06/01/20240601_120000_"))
	assert.True(t, strings.HasSuffix(frame.Name, ".jpg"))
	assert.Equal(t, "/api/v1/camera/frames/"+frame.Name, frame.ImageURL)
	assert.Equal(t, int64(10), frame.Size)

	rc, meta, err := repo.Open(ctx, frame.Name)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.Equal(t, "image/jpeg", meta.MimeType)
}

func TestSaveRejectsOversizedAndUnknownTypes(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 4)

	_, err := repo.Save(ctx, "big.png", "image/png", bytes.NewReader([]byte("12345")))
	assert.True(t, errors.IsValidation(err))

	_, err = repo.Save(ctx, "x.gif", "image/gif", strings.NewReader("gif"))
	assert.True(t, errors.IsValidation(err))

	entries := 0
	filepath.Walk(repo.config.BasePath, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			entries++
		}
		return nil
	})
	assert.Zero(t, entries)
}

func TestOpenRejectsTraversal(t *testing.T) {
	repo := newRepo(t, 1024)
	for _, name := range []string{"../etc/passwd", "/etc/passwd", "..", "a/../../b", ""} {
		_, _, err := repo.Open(context.Background(), name)
		assert.True(t, errors.IsValidation(err), name)
	}

	_, _, err := repo.Open(context.Background(), "2024/01/01/missing.jpg")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, 1024)

	frame, err := repo.Save(ctx, "old.jpg", "image/jpeg", strings.NewReader("x"))
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(repo.config.BasePath, frame.Name), old, old))

	_, err = repo.Save(ctx, "new.jpg", "image/jpeg", strings.NewReader("y"))
	require.NoError(t, err)

	n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
