// FilePath: internal/repository/timescale/timescale.locations.go
package timescale

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/database"
	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/models"
)

// LocationRepo stores location samples in a day-chunked hypertable
// keyed by (date, device_id, ts).
type LocationRepo struct {
	db database.DB
}

func NewLocationRepository(db database.DB) (*LocationRepo, error) {
	repo := &LocationRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *LocationRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS location_points (
			date DATE NOT NULL,
			device_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (date, device_id, ts)
		)`,
		`SELECT create_hypertable('location_points', 'ts',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		// Serves the per-device single-partition range scans
		`CREATE INDEX IF NOT EXISTS idx_location_points_device_ts
         ON location_points(device_id, ts ASC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}

	r.setupRetentionPolicy()
	return nil
}

func (r *LocationRepo) setupRetentionPolicy() {
	query := `
		SELECT add_retention_policy('location_points',
			INTERVAL '13 months',
			if_not_exists => TRUE
		)`

	_, err := r.db.GetDB().Exec(query)
	if err != nil {
		nuts.L.Errorf("[TimescaleDB] Failed to set up retention policy: %v", err)
	}
}

// Upsert writes a sample; a colliding (date, device_id, ts) key
// overwrites the coordinates, which is what makes queue redelivery
// idempotent.
func (r *LocationRepo) Upsert(ctx context.Context, sample *models.LocationSample) error {
	query := `
		INSERT INTO location_points (date, device_id, ts, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, device_id, ts)
		DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		sample.Date, sample.DeviceID, sample.Timestamp, sample.Latitude, sample.Longitude)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert location sample", err)
	}
	return nil
}

// GetRange returns one device's samples for a day within
// [start, end], ascending by timestamp.
func (r *LocationRepo) GetRange(ctx context.Context, deviceID, date string, start, end time.Time) ([]models.LocationSample, error) {
	samples := []models.LocationSample{}
	query := `
		SELECT device_id, to_char(date, 'YYYY-MM-DD') AS date, ts, latitude, longitude
		FROM location_points
		WHERE date = $1 AND device_id = $2 AND ts BETWEEN $3 AND $4
		ORDER BY ts ASC`

	err := r.db.GetDB().SelectContext(ctx, &samples, query, date, deviceID, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get location range", err)
	}
	return samples, nil
}

// GetDay returns one device's full sample sequence for a day,
// ascending by timestamp.
func (r *LocationRepo) GetDay(ctx context.Context, deviceID, date string) ([]models.LocationSample, error) {
	samples := []models.LocationSample{}
	query := `
		SELECT device_id, to_char(date, 'YYYY-MM-DD') AS date, ts, latitude, longitude
		FROM location_points
		WHERE date = $1 AND device_id = $2
		ORDER BY ts ASC`

	err := r.db.GetDB().SelectContext(ctx, &samples, query, date, deviceID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get day of locations", err)
	}
	return samples, nil
}

// ScanAll reads a day across every device partition, ordered
// device-then-ts. Not served by the composite key alone; this is the
// explicitly higher-cost path.
func (r *LocationRepo) ScanAll(ctx context.Context, date string, start, end time.Time) ([]models.LocationSample, error) {
	samples := []models.LocationSample{}
	query := `
		SELECT device_id, to_char(date, 'YYYY-MM-DD') AS date, ts, latitude, longitude
		FROM location_points
		WHERE date = $1 AND ts BETWEEN $2 AND $3
		ORDER BY device_id ASC, ts ASC`

	err := r.db.GetDB().SelectContext(ctx, &samples, query, date, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to scan locations", err)
	}
	return samples, nil
}

func (r *LocationRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

func (r *LocationRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.NewDatabaseError("failed to close database", err)
	}
	return nil
}
