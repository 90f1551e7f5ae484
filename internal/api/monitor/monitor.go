package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/cache"
	"github.com/hausnet/knxnetip/internal/infrastructure/config"
	"github.com/hausnet/knxnetip/internal/infrastructure/logging"
	"github.com/hausnet/knxnetip/telegram"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BusClient is the subset of a routing or tunnel client's API the stream
// endpoint needs to hand each WebSocket connection its own telegram feed.
type BusClient interface {
	Subscribe(id any) <-chan telegram.Telegram
	Unsubscribe(id any)
}

// Deps holds the dependencies required by the monitor server.
type Deps struct {
	Config  config.MonitorConfig
	Logger  *logging.Logger
	Cache   *cache.Cache
	Bus     BusClient
	Version string
}

// Server is the read-only monitor HTTP API.
type Server struct {
	cfg     config.MonitorConfig
	logger  *logging.Logger
	cache   *cache.Cache
	bus     BusClient
	version string

	server *http.Server
	cancel context.CancelFunc
}

// New creates a new monitor server. The server is not started until Start
// is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if deps.Config.Enabled && deps.Config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required when monitor is enabled")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		cache:   deps.Cache,
		bus:     deps.Bus,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	_, s.cancel = context.WithCancel(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("monitor API starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitor API error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the monitor server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("monitor API shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down monitor API: %w", err)
	}
	return nil
}

// HealthCheck verifies the monitor server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("monitor health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("monitor server not started")
	}
	return nil
}

// groupSnapshot is the JSON shape of one cache entry returned by the API.
type groupSnapshot struct {
	Address    string `json:"address"`
	DPT        string `json:"dpt"`
	Name       string `json:"name,omitempty"`
	Value      any    `json:"value,omitempty"`
	HasValue   bool   `json:"has_value"`
	LastUpdate string `json:"last_update,omitempty"`
}

func toGroupSnapshot(ga address.GroupAddress, e cache.Entry) groupSnapshot {
	snap := groupSnapshot{
		Address:  ga.String(),
		DPT:      e.DPT,
		Name:     e.Name,
		HasValue: e.HasValue(),
	}
	if e.HasValue() {
		snap.Value = e.Value
		snap.LastUpdate = e.LastUpdate.UTC().Format(time.RFC3339)
	}
	return snap
}
