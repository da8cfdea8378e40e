package trackservice

import (
	"github.com/itsatony/trackhub/internal/errors"
	"github.com/itsatony/trackhub/internal/repository"
)

// TrackService contains all repositories and service-wide
// dependencies for serving location queries. All of its operations
// are read-only.
type TrackService struct {
	Locations repository.LocationRepository
	Devices   repository.DeviceRegistry
}

// New creates a new TrackService instance
func New(locations repository.LocationRepository, devices repository.DeviceRegistry) *TrackService {
	return &TrackService{
		Locations: locations,
		Devices:   devices,
	}
}

// Validate checks if all required repositories are initialized
func (s *TrackService) Validate() error {
	if s.Locations == nil {
		return ErrMissingRepository("locations")
	}
	if s.Devices == nil {
		return ErrMissingRepository("devices")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
