package trackservice

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/geo"
	"github.com/itsatony/trackhub/internal/models"
)

const dateLayout = "2006-01-02"

// Timestamp layouts accepted in query parameters. Zone-less values
// are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// GetLocations returns one device's samples for a day within
// [start, end], ascending by timestamp.
func (s *TrackService) GetLocations(ctx context.Context, deviceID, date, start, end string) ([]models.LocationSample, error) {
	if deviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}
	day, startTs, endTs, err := parseRange(date, start, end)
	if err != nil {
		return nil, err
	}
	return s.Locations.GetRange(ctx, deviceID, day, startTs, endTs)
}

// GetDevicesInRange returns the samples of every known device for a
// day within [start, end], concatenated in device-then-time order.
// The device set comes from the registry; looping per device keeps
// every scan bounded to a single partition.
func (s *TrackService) GetDevicesInRange(ctx context.Context, date, start, end string) ([]models.LocationSample, error) {
	day, startTs, endTs, err := parseRange(date, start, end)
	if err != nil {
		return nil, err
	}

	deviceIDs, err := s.Devices.ListDeviceIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := []models.LocationSample{}
	for _, deviceID := range deviceIDs {
		samples, err := s.Locations.GetRange(ctx, deviceID, day, startTs, endTs)
		if err != nil {
			return nil, err
		}
		results = append(results, samples...)
	}
	return results, nil
}

// GetAllLocations returns a day's samples across all devices via a
// cross-partition scan. Fallback for when the registry view is not
// wanted; costs a full scan of the day's partitions.
func (s *TrackService) GetAllLocations(ctx context.Context, date, start, end string) ([]models.LocationSample, error) {
	day, startTs, endTs, err := parseRange(date, start, end)
	if err != nil {
		return nil, err
	}
	return s.Locations.ScanAll(ctx, day, startTs, endTs)
}

// GetDeviceSummary computes a device's trip summary for one day:
// sample count, first and last position, and the cumulative
// great-circle distance over the ordered sequence. A day without
// samples yields a zero-valued summary rather than an error.
func (s *TrackService) GetDeviceSummary(ctx context.Context, deviceID, date string) (*models.TripSummary, error) {
	if deviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	samples, err := s.Locations.GetDay(ctx, deviceID, day)
	if err != nil {
		return nil, err
	}

	summary := &models.TripSummary{
		DeviceID: deviceID,
		Date:     day,
		Count:    len(samples),
	}
	if len(samples) == 0 {
		return summary, nil
	}

	first, last := samples[0], samples[len(samples)-1]
	summary.First = &models.TripPoint{Timestamp: first.Timestamp, Latitude: first.Latitude, Longitude: first.Longitude}
	summary.Last = &models.TripPoint{Timestamp: last.Timestamp, Latitude: last.Latitude, Longitude: last.Longitude}

	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += geo.Haversine(
			samples[i-1].Latitude, samples[i-1].Longitude,
			samples[i].Latitude, samples[i].Longitude,
		)
	}
	summary.TotalDistanceM = math.Round(total*100) / 100

	return summary, nil
}

func parseDate(date string) (string, error) {
	if date == "" {
		return "", errors.NewValidationError("date is required", nil)
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", errors.NewValidationError(fmt.Sprintf("invalid field date: %q", date), err)
	}
	return day.Format(dateLayout), nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.NewValidationError(field+" is required", nil)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.NewValidationError(fmt.Sprintf("invalid field %s: %q", field, value), nil)
}

func parseRange(date, start, end string) (string, time.Time, time.Time, error) {
	day, err := parseDate(date)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	startTs, err := parseTimestamp("start", start)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	endTs, err := parseTimestamp("end", end)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if startTs.After(endTs) {
		return "", time.Time{}, time.Time{}, errors.NewInvalidRangeError("start must not be after end", nil)
	}
	return day, startTs, endTs, nil
}
