package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/repository/memory"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	sensors := memory.NewSensorDataRepository(store)
	images := memory.NewCameraImageRepository(store)

	for i, age := range []time.Duration{time.Hour, 48 * time.Hour, 72 * time.Hour} {
		require.NoError(t, sensors.Insert(ctx, &models.SensorData{
			ID: "sd_" + string(rune('a'+i)), SensorType: "temperature", Value: 20, Unit: "C",
			Timestamp: now.Add(-age),
		}))
		id := "img_" + string(rune('a'+i))
		require.NoError(t, images.Create(ctx, &models.CameraImage{
			ID: id, ImageURL: id + ".jpg", Processed: true, CapturedAt: now.Add(-age), CreatedAt: now,
		}))
		require.NoError(t, images.CreateDetections(ctx, []models.Detection{
			{ID: "det_" + id, CameraImageID: id, DetectionType: "Person", Confidence: 0.8, DetectedAt: now},
		}))
	}
}

func TestRunOncePrunesOldRecords(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	svc := New(
		config.RetentionConfig{Interval: time.Hour, SensorData: 24 * time.Hour, CameraImages: 60 * time.Hour},
		memory.NewSensorDataRepository(store),
		memory.NewCameraImageRepository(store),
		nil,
	)
	svc.now = func() time.Time { return now }

	var mu sync.Mutex
	pruned := map[string]int64{}
	record := func(kind string, count int64) {
		mu.Lock()
		defer mu.Unlock()
		pruned[kind] = count
	}
	svc.OnPrune(EventSensorDataPruned, record)
	svc.OnPrune(EventCameraImagesPruned, record)

	res, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.SensorData)
	assert.Equal(t, int64(1), res.CameraImages)

	readings, err := memory.NewSensorDataRepository(store).List(context.Background(), models.SensorFilters{})
	require.NoError(t, err)
	assert.Len(t, readings, 1)

	images, err := memory.NewCameraImageRepository(store).List(context.Background(), models.ImageFilters{})
	require.NoError(t, err)
	assert.Len(t, images, 2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int64{"sensor_data": 2, "camera_images": 1}, pruned)
}

func TestPruneHandlersOnlySeeTheirEvent(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	svc := New(
		config.RetentionConfig{Interval: time.Hour, SensorData: 24 * time.Hour},
		memory.NewSensorDataRepository(store),
		memory.NewCameraImageRepository(store),
		nil,
	)
	svc.now = func() time.Time { return now }

	var calls []string
	svc.OnPrune(EventSensorDataPruned, func(kind string, count int64) {
		calls = append(calls, kind)
		assert.Equal(t, int64(2), count)
	})
	svc.OnPrune(EventCameraImagesPruned, func(kind string, count int64) {
		calls = append(calls, kind)
	})

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sensor_data"}, calls)
}

func TestZeroAgesDisablePruning(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	svc := New(config.RetentionConfig{Interval: time.Hour},
		memory.NewSensorDataRepository(store), memory.NewCameraImageRepository(store), nil)
	assert.False(t, svc.Enabled())

	res, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRunStopsWithContext(t *testing.T) {
	store := memory.NewStore()
	svc := New(config.RetentionConfig{Interval: 10 * time.Millisecond, SensorData: time.Hour},
		memory.NewSensorDataRepository(store), memory.NewCameraImageRepository(store), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
