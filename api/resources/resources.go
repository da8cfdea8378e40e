package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/stream"
	"github.com/itsatony/trackhub/internal/trackservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Locations *LocationHandlers
	Devices   *DeviceHandlers
	Stream    *StreamHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *trackservice.TrackService, hub *stream.Hub, streamCfg config.StreamConfig) *Resources {
	return &Resources{
		Locations: &LocationHandlers{trackservice: svc},
		Devices:   &DeviceHandlers{trackservice: svc},
		Stream:    NewStreamHandlers(hub, streamCfg),
	}
}

// HealthCheck reports service liveness and version.
func (r *Resources) HealthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
}
