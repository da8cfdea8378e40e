package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/itsatony/trackhub/api/resources"
	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/stream"
	"github.com/itsatony/trackhub/internal/trackservice"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

func NewRouter(svc *trackservice.TrackService, hub *stream.Hub, streamCfg config.StreamConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc, hub, streamCfg),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)

	// Historical queries
	locations := r.resources.Locations
	api.HandleFunc("/locations", locations.GetLocations).Methods(http.MethodGet)
	api.HandleFunc("/devices-in-range", locations.GetDevicesInRange).Methods(http.MethodGet)
	api.HandleFunc("/all-locations", locations.GetAllLocations).Methods(http.MethodGet)
	api.HandleFunc("/device-summary", locations.GetDeviceSummary).Methods(http.MethodGet)

	// Device registry
	devices := r.resources.Devices
	api.HandleFunc("/devices", devices.ListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", devices.RegisterDevice).Methods(http.MethodPost)

	// Realtime channel
	str := r.resources.Stream
	api.HandleFunc("/ws/locations", str.HandleLocationStream).Methods(http.MethodGet)
	api.HandleFunc("/locations/broadcast", str.PublishUpdate).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
