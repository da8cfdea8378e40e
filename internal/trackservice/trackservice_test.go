package trackservice

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/geo"
	"github.com/itsatony/trackhub/internal/models"
)

// memoryLocations mimics the store contract: keyed upsert, ordered
// scans.
type memoryLocations struct {
	samples []models.LocationSample
}

func (m *memoryLocations) Upsert(ctx context.Context, sample *models.LocationSample) error {
	for i, existing := range m.samples {
		if existing.Date == sample.Date && existing.DeviceID == sample.DeviceID && existing.Timestamp.Equal(sample.Timestamp) {
			m.samples[i] = *sample
			return nil
		}
	}
	m.samples = append(m.samples, *sample)
	return nil
}

func (m *memoryLocations) GetRange(ctx context.Context, deviceID, date string, start, end time.Time) ([]models.LocationSample, error) {
	result := []models.LocationSample{}
	for _, s := range m.samples {
		if s.DeviceID == deviceID && s.Date == date && !s.Timestamp.Before(start) && !s.Timestamp.After(end) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func (m *memoryLocations) GetDay(ctx context.Context, deviceID, date string) ([]models.LocationSample, error) {
	return m.GetRange(ctx, deviceID, date, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *memoryLocations) ScanAll(ctx context.Context, date string, start, end time.Time) ([]models.LocationSample, error) {
	result := []models.LocationSample{}
	for _, s := range m.samples {
		if s.Date == date && !s.Timestamp.Before(start) && !s.Timestamp.After(end) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeviceID != result[j].DeviceID {
			return result[i].DeviceID < result[j].DeviceID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m *memoryLocations) Ping(ctx context.Context) error { return nil }
func (m *memoryLocations) Close() error                   { return nil }

type staticRegistry struct {
	ids []string
}

func (r *staticRegistry) ListDeviceIDs(ctx context.Context) ([]string, error) {
	ids := append([]string{}, r.ids...)
	sort.Strings(ids)
	return ids, nil
}

func (r *staticRegistry) RegisterDevice(ctx context.Context, deviceID string) error {
	r.ids = append(r.ids, deviceID)
	return nil
}

func (r *staticRegistry) Close() error { return nil }

func seedSample(t *testing.T, store *memoryLocations, deviceID string, ts int64, lat, lon float64) models.LocationSample {
	t.Helper()
	event := models.QueuedEvent{DeviceID: deviceID, Timestamp: ts, Latitude: lat, Longitude: lon}
	require.NoError(t, event.Validate())
	sample := event.ToSample()
	require.NoError(t, store.Upsert(context.Background(), &sample))
	return sample
}

func TestGetLocationsValidation(t *testing.T) {
	svc := New(&memoryLocations{}, &staticRegistry{})
	ctx := context.Background()

	_, err := svc.GetLocations(ctx, "", "2023-11-14", "2023-11-14T00:00:00", "2023-11-14T23:59:59")
	assert.True(t, errors.IsValidation(err))

	_, err = svc.GetLocations(ctx, "dev001", "14.11.2023", "2023-11-14T00:00:00", "2023-11-14T23:59:59")
	if assert.True(t, errors.IsValidation(err)) {
		assert.Contains(t, err.Error(), "date")
	}

	_, err = svc.GetLocations(ctx, "dev001", "2023-11-14", "not-a-time", "2023-11-14T23:59:59")
	if assert.True(t, errors.IsValidation(err)) {
		assert.Contains(t, err.Error(), "start")
	}
}

func TestGetLocationsInvalidRange(t *testing.T) {
	store := &memoryLocations{}
	seedSample(t, store, "dev001", 1700000000, 39.9, 32.8)
	svc := New(store, &staticRegistry{})

	// start > end is an error, not an empty result.
	_, err := svc.GetLocations(context.Background(), "dev001", "2023-11-14", "2023-11-14T23:00:00", "2023-11-14T01:00:00")
	assert.True(t, errors.IsInvalidRange(err))
}

func TestGetLocationsOrdering(t *testing.T) {
	store := &memoryLocations{}
	// Insert out of order.
	seedSample(t, store, "dev001", 1700000300, 39.91, 32.82)
	seedSample(t, store, "dev001", 1700000100, 39.90, 32.80)
	seedSample(t, store, "dev001", 1700000200, 39.905, 32.81)
	svc := New(store, &staticRegistry{})

	samples, err := svc.GetLocations(context.Background(), "dev001", "2023-11-14", "2023-11-14T00:00:00", "2023-11-14T23:59:59")
	require.NoError(t, err)
	require.Len(t, samples, 3)
	for i := 1; i < len(samples); i++ {
		assert.False(t, samples[i].Timestamp.Before(samples[i-1].Timestamp))
	}
}

func TestGetDevicesInRangeDeviceThenTimeOrder(t *testing.T) {
	store := &memoryLocations{}
	seedSample(t, store, "dev002", 1700000100, 40.0, 33.0)
	seedSample(t, store, "dev001", 1700000200, 39.9, 32.8)
	seedSample(t, store, "dev001", 1700000100, 39.9, 32.8)
	svc := New(store, &staticRegistry{ids: []string{"dev002", "dev001"}})

	samples, err := svc.GetDevicesInRange(context.Background(), "2023-11-14", "2023-11-14T00:00:00", "2023-11-14T23:59:59")
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "dev001", samples[0].DeviceID)
	assert.Equal(t, "dev001", samples[1].DeviceID)
	assert.Equal(t, "dev002", samples[2].DeviceID)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
}

func TestGetDeviceSummaryEmptyDay(t *testing.T) {
	svc := New(&memoryLocations{}, &staticRegistry{})

	summary, err := svc.GetDeviceSummary(context.Background(), "dev001", "2023-11-14")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Count)
	assert.Nil(t, summary.First)
	assert.Nil(t, summary.Last)
	assert.Equal(t, 0.0, summary.TotalDistanceM)
}

func TestGetDeviceSummaryAccumulatesDistance(t *testing.T) {
	store := &memoryLocations{}
	// dev001 moves east in two legs at t=100, 200, 300 (offsets into
	// 2023-11-14).
	base := int64(1700000000)
	s1 := seedSample(t, store, "dev001", base+100, 39.90, 32.80)
	s2 := seedSample(t, store, "dev001", base+200, 39.90, 32.81)
	s3 := seedSample(t, store, "dev001", base+300, 39.90, 32.82)
	svc := New(store, &staticRegistry{})

	summary, err := svc.GetDeviceSummary(context.Background(), "dev001", "2023-11-14")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	require.NotNil(t, summary.First)
	require.NotNil(t, summary.Last)
	assert.Equal(t, s1.Timestamp, summary.First.Timestamp)
	assert.Equal(t, s3.Timestamp, summary.Last.Timestamp)

	want := geo.Haversine(s1.Latitude, s1.Longitude, s2.Latitude, s2.Longitude) +
		geo.Haversine(s2.Latitude, s2.Longitude, s3.Latitude, s3.Longitude)
	assert.InDelta(t, want, summary.TotalDistanceM, 0.01)
	assert.Greater(t, summary.TotalDistanceM, 0.0)
}

func TestGetDeviceSummaryIgnoresRewrittenDuplicates(t *testing.T) {
	store := &memoryLocations{}
	// The same event applied twice (queue redelivery) contributes one
	// sample.
	seedSample(t, store, "dev001", 1700000100, 39.90, 32.80)
	seedSample(t, store, "dev001", 1700000100, 39.90, 32.80)
	svc := New(store, &staticRegistry{})

	summary, err := svc.GetDeviceSummary(context.Background(), "dev001", "2023-11-14")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 0.0, summary.TotalDistanceM)
}

func TestGetAllLocationsFullScan(t *testing.T) {
	store := &memoryLocations{}
	seedSample(t, store, "dev002", 1700000100, 40.0, 33.0)
	seedSample(t, store, "dev001", 1700000100, 39.9, 32.8)
	// Registry intentionally empty: the full scan sees stored data
	// even for unregistered devices.
	svc := New(store, &staticRegistry{})

	samples, err := svc.GetAllLocations(context.Background(), "2023-11-14", "2023-11-14T00:00:00", "2023-11-14T23:59:59")
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, New(&memoryLocations{}, &staticRegistry{}).Validate())
	assert.Error(t, New(nil, &staticRegistry{}).Validate())
	assert.Error(t, New(&memoryLocations{}, nil).Validate())
}
