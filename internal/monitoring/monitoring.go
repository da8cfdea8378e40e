package monitoring

import (
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	PrometheusEndpoint string
	LokiEndpoint       string
}

// Service provides monitoring functionality
type Service struct {
	config Config
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config: config,
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
	// TODO: push to Prometheus once the deployment gets a pushgateway.
	// Until then the structured log line is the metric: ingest and
	// stream events ("observer.connected", "device.registered") are
	// scraped from logs.
}
