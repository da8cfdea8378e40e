package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/trackservice"
)

// DeviceHandlers encapsulates the device registry HTTP handlers
type DeviceHandlers struct {
	trackservice *trackservice.TrackService
}

type registerDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// @Summary List known devices
// @Tags devices
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	ids, err := h.trackservice.Devices.ListDeviceIDs(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list devices").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string][]string{"devices": ids})
}

// @Summary Register a device
// @Tags devices
// @Accept json
// @Produce json
// @Param device body registerDeviceRequest true "Device to register"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /devices [post]
func (h *DeviceHandlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("device_id is required", nil).WithRequestID(requestID))
		return
	}

	if err := h.trackservice.Devices.RegisterDevice(r.Context(), req.DeviceID); err != nil {
		respondWithError(w, asAPIError(err, "failed to register device").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"device_id": req.DeviceID})
}
