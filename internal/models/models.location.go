// FilePath: internal/models/models.location.go
package models

import "time"

// LocationSample represents a single stored device position. A sample
// is keyed by (date, device_id, ts); writing the same key again
// overwrites rather than duplicating.
type LocationSample struct {
	DeviceID  string    `json:"device_id" db:"device_id"`
	Date      string    `json:"date" db:"date"` // UTC calendar day, YYYY-MM-DD, derived from Timestamp
	Timestamp time.Time `json:"timestamp" db:"ts"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
}

// TripPoint is one end of a device's daily sample sequence.
type TripPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// TripSummary aggregates one device's samples for one day. It is
// derived at query time and never stored.
type TripSummary struct {
	DeviceID       string     `json:"device_id"`
	Date           string     `json:"date"`
	Count          int        `json:"count"`
	First          *TripPoint `json:"first"`
	Last           *TripPoint `json:"last"`
	TotalDistanceM float64    `json:"total_distance_m"`
}

// LocationUpdate is the realtime push message delivered to stream
// observers.
type LocationUpdate struct {
	Type      string    `json:"type"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

const LocationUpdateType = "location_update"

// NewLocationUpdate builds the push message for a freshly ingested sample.
func NewLocationUpdate(sample LocationSample) LocationUpdate {
	return LocationUpdate{
		Type:      LocationUpdateType,
		DeviceID:  sample.DeviceID,
		Timestamp: sample.Timestamp,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
	}
}
