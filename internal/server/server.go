// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/api"
	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/database"
	"github.com/itsatony/trackhub/internal/ingest"
	"github.com/itsatony/trackhub/internal/monitoring"
	"github.com/itsatony/trackhub/internal/queue/rabbitmq"
	"github.com/itsatony/trackhub/internal/repository"
	redisrepo "github.com/itsatony/trackhub/internal/repository/redis"
	"github.com/itsatony/trackhub/internal/repository/timescale"
	"github.com/itsatony/trackhub/internal/stream"
	"github.com/itsatony/trackhub/internal/trackservice"
)

// Server wires the ingest pipeline and the HTTP query surface into
// one process.
type Server struct {
	config       *config.Config
	srv          *http.Server
	trackservice *trackservice.TrackService
	hub          *stream.Hub
	writer       *ingest.Writer
	queue        *rabbitmq.Queue
	monitoring   *monitoring.Service
	cancelIngest context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start connects the collaborators, launches the ingest loop and
// begins listening for requests.
func (s *Server) Start() error {
	locations := initLocationRepository(s.config.Database.TimescaleDB)
	registry := initDeviceRegistry(s.config)

	s.hub = stream.New()
	s.trackservice = trackservice.New(locations, registry)
	if err := s.trackservice.Validate(); err != nil {
		return err
	}

	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})
	s.setupStreamHandlers()

	q, err := rabbitmq.New(s.config.Queue)
	if err != nil {
		return fmt.Errorf("failed to connect queue: %w", err)
	}
	s.queue = q

	s.writer = ingest.New(locations, registry, s.hub, q,
		s.config.Queue.StoreTimeout, s.config.Queue.RetryBackoff)

	ingestCtx, cancel := context.WithCancel(context.Background())
	s.cancelIngest = cancel
	go func() {
		if err := s.writer.Run(ingestCtx); err != nil && err != context.Canceled {
			nuts.L.Errorf("[Server] Ingest loop stopped: %v", err)
		}
	}()

	router := api.NewRouter(s.trackservice, s.hub, s.config.Stream)
	s.srv.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown(locations, registry)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(locations repository.LocationRepository, registry repository.DeviceRegistry) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	// Stop consuming first; unacked deliveries go back to the queue.
	s.cancelIngest()
	if err := s.queue.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing queue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if err := locations.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing store: %v", err)
	}
	if err := registry.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing registry: %v", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setupStreamHandlers feeds observer lifecycle events to monitoring.
func (s *Server) setupStreamHandlers() {
	s.hub.OnObserverEvent("observer.connected", func(id string) {
		s.monitoring.RecordEvent("observer_connected", map[string]string{
			"observer_id": id,
		})
	})

	s.hub.OnObserverEvent("observer.disconnected", func(id string) {
		s.monitoring.RecordEvent("observer_disconnected", map[string]string{
			"observer_id": id,
		})
	})
}

func initLocationRepository(cfg config.PostgresConfig) repository.LocationRepository {
	tsdb, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}

	locations, err := timescale.NewLocationRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize location repository: %v", err)
	}
	return locations
}

func initDeviceRegistry(cfg *config.Config) repository.DeviceRegistry {
	registry, err := redisrepo.NewDeviceRegistry(cfg.Redis)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to Redis: %v", err)
	}

	if err := registry.Seed(context.Background(), cfg.Devices); err != nil {
		nuts.L.Fatalf("[Server] Failed to seed device registry: %v", err)
	}
	return registry
}
