// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/itsatony/trackhub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// LocationRepository defines the time-series store boundary. Samples
// are partitioned by (date, device_id) and clustered by timestamp, so
// every per-device range is a single-partition scan.
type LocationRepository interface {
	// Upsert writes a sample keyed by (date, device_id, ts);
	// a colliding key overwrites (last write wins).
	Upsert(ctx context.Context, sample *models.LocationSample) error
	// GetRange returns one device's samples for a day with
	// start <= ts <= end, ascending by ts.
	GetRange(ctx context.Context, deviceID, date string, start, end time.Time) ([]models.LocationSample, error)
	// GetDay returns one device's full sample sequence for a day,
	// ascending by ts.
	GetDay(ctx context.Context, deviceID, date string) ([]models.LocationSample, error)
	// ScanAll returns samples across all devices for a day, ordered
	// device-then-ts. This crosses every partition of the day and is
	// the documented higher-cost path; prefer the registry-driven
	// per-device loop.
	ScanAll(ctx context.Context, date string, start, end time.Time) ([]models.LocationSample, error)
	Ping(ctx context.Context) error
	Close() error
}

// DeviceRegistry supplies the set of known device IDs. It is an
// external collaborator of the query service and is never derived
// from the time-series store.
type DeviceRegistry interface {
	ListDeviceIDs(ctx context.Context) ([]string, error)
	RegisterDevice(ctx context.Context, deviceID string) error
	Close() error
}
