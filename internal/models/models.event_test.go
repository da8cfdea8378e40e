package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueuedEventValidate(t *testing.T) {
	valid := QueuedEvent{DeviceID: "dev001", Timestamp: 1700000000, Latitude: 39.9, Longitude: 32.8}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		event QueuedEvent
		field string
	}{
		{"missing device", QueuedEvent{Timestamp: 1700000000, Latitude: 39.9, Longitude: 32.8}, "device_id"},
		{"zero timestamp", QueuedEvent{DeviceID: "dev001", Latitude: 39.9, Longitude: 32.8}, "timestamp"},
		{"latitude too high", QueuedEvent{DeviceID: "dev001", Timestamp: 1700000000, Latitude: 90.5, Longitude: 32.8}, "latitude"},
		{"longitude too low", QueuedEvent{DeviceID: "dev001", Timestamp: 1700000000, Latitude: 39.9, Longitude: -180.5}, "longitude"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.field)
			}
		})
	}
}

func TestToSampleDerivesUTCDate(t *testing.T) {
	// 2023-11-14T22:13:20Z; the date must come from UTC regardless of
	// the producer's local zone.
	event := QueuedEvent{DeviceID: "dev001", Timestamp: 1700000000, Latitude: 39.9, Longitude: 32.8}
	sample := event.ToSample()

	assert.Equal(t, "dev001", sample.DeviceID)
	assert.Equal(t, "2023-11-14", sample.Date)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), sample.Timestamp)
	assert.Equal(t, time.UTC, sample.Timestamp.Location())
}

func TestToSampleDateAtMidnightBoundary(t *testing.T) {
	// 2023-11-15T00:00:00Z belongs to the 15th, not the 14th.
	event := QueuedEvent{DeviceID: "dev001", Timestamp: 1700006400, Latitude: 1, Longitude: 1}
	assert.Equal(t, "2023-11-15", event.ToSample().Date)
}

func TestNewLocationUpdate(t *testing.T) {
	sample := LocationSample{
		DeviceID:  "dev002",
		Date:      "2023-11-14",
		Timestamp: time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC),
		Latitude:  39.9,
		Longitude: 32.8,
	}
	update := NewLocationUpdate(sample)

	assert.Equal(t, LocationUpdateType, update.Type)
	assert.Equal(t, sample.DeviceID, update.DeviceID)
	assert.Equal(t, sample.Timestamp, update.Timestamp)
	assert.Equal(t, sample.Latitude, update.Latitude)
	assert.Equal(t, sample.Longitude, update.Longitude)
}
