package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
	"github.com/homehub/hub-core/internal/hub"
	"github.com/homehub/hub-core/internal/infrastructure/config"
	"github.com/homehub/hub-core/internal/infrastructure/logging"
	"github.com/homehub/hub-core/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DeviceHub is the slice of the hub's boundary surface the API needs.
// *hub.Hub satisfies it directly.
type DeviceHub interface {
	Send(topic string, payload []byte)
	PublishConfig(ctx context.Context, mac string) error
	Discover(ctx context.Context, window time.Duration) ([]hub.DiscoveredDevice, error)
}

// HealthChecker reports whether a dependency is healthy.
// Both the database wrapper and the MQTT client implement it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config          config.APIConfig
	DiscoveryWindow time.Duration
	Logger          *logging.Logger
	Rooms           device.RoomRepository
	Devices         device.Repository
	Attachments     device.AttachmentRepository
	Events          event.Repository
	Hub             DeviceHub

	// DB and MQTT feed the health endpoint; either may be nil.
	DB   HealthChecker
	MQTT HealthChecker

	Version string
}

// Server is the HTTP API server for HomeHub Core.
//
// It is a thin collaborator: handlers decode JSON, call repositories and hub
// boundary functions, and encode the result. The server is created with
// New() and started with Start().
type Server struct {
	cfg             config.APIConfig
	discoveryWindow time.Duration
	logger          *logging.Logger
	rooms           device.RoomRepository
	devices         device.Repository
	attachments     device.AttachmentRepository
	events          event.Repository
	hub             DeviceHub
	db              HealthChecker
	mqtt            HealthChecker
	topics          mqtt.Topics
	version         string
	server          *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Rooms == nil || deps.Devices == nil || deps.Attachments == nil || deps.Events == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("hub is required")
	}

	window := deps.DiscoveryWindow
	if window <= 0 {
		window = time.Second
	}

	return &Server{
		cfg:             deps.Config,
		discoveryWindow: window,
		logger:          deps.Logger.With("component", "api"),
		rooms:           deps.Rooms,
		devices:         deps.Devices,
		attachments:     deps.Attachments,
		events:          deps.Events,
		hub:             deps.Hub,
		db:              deps.DB,
		mqtt:            deps.MQTT,
		version:         deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
// It waits up to 10 seconds for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
