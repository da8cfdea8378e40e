package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/trackservice"
)

// LocationHandlers encapsulates the location query HTTP handlers
type LocationHandlers struct {
	trackservice *trackservice.TrackService
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type rangeQuery struct {
	DeviceID string `schema:"device_id"`
	Date     string `schema:"date"`
	Start    string `schema:"start"`
	End      string `schema:"end"`
}

type summaryQuery struct {
	DeviceID string `schema:"device_id"`
	Date     string `schema:"date"`
}

// @Summary Get device locations
// @Description Get one device's location samples for a day within [start, end], ordered by timestamp
// @Tags locations
// @Produce json
// @Param device_id query string true "Device ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param start query string true "Start time (RFC3339 or zone-less ISO, UTC)"
// @Param end query string true "End time (RFC3339 or zone-less ISO, UTC)"
// @Success 200 {array} models.LocationSample
// @Failure 400 {object} errors.APIError
// @Router /locations [get]
func (h *LocationHandlers) GetLocations(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q rangeQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	samples, err := h.trackservice.GetLocations(r.Context(), q.DeviceID, q.Date, q.Start, q.End)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get locations").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, samples)
}

// @Summary Get locations of all known devices
// @Description Get every registered device's samples for a day within [start, end], in device-then-time order
// @Tags locations
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param start query string true "Start time"
// @Param end query string true "End time"
// @Success 200 {array} models.LocationSample
// @Failure 400 {object} errors.APIError
// @Router /devices-in-range [get]
func (h *LocationHandlers) GetDevicesInRange(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q rangeQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	samples, err := h.trackservice.GetDevicesInRange(r.Context(), q.Date, q.Start, q.End)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get devices in range").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, samples)
}

// @Summary Get all locations via full scan
// @Description Cross-partition scan of a whole day; higher cost than /devices-in-range
// @Tags locations
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param start query string true "Start time"
// @Param end query string true "End time"
// @Success 200 {array} models.LocationSample
// @Failure 400 {object} errors.APIError
// @Router /all-locations [get]
func (h *LocationHandlers) GetAllLocations(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q rangeQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	samples, err := h.trackservice.GetAllLocations(r.Context(), q.Date, q.Start, q.End)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to scan locations").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, samples)
}

// @Summary Get device trip summary
// @Description Sample count, first/last position and cumulative great-circle distance for one device and day
// @Tags locations
// @Produce json
// @Param device_id query string true "Device ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} models.TripSummary
// @Failure 400 {object} errors.APIError
// @Router /device-summary [get]
func (h *LocationHandlers) GetDeviceSummary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q summaryQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	summary, err := h.trackservice.GetDeviceSummary(r.Context(), q.DeviceID, q.Date)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get device summary").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// Helper functions

// asAPIError passes through typed service errors and wraps anything
// else as internal.
func asAPIError(err error, msg string) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}
	return errors.NewInternalError(msg, err)
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
