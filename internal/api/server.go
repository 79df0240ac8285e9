package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/doorlight/internal/api/models"
	"github.com/smazurov/doorlight/internal/events"
	"github.com/smazurov/doorlight/internal/led"
	"github.com/smazurov/doorlight/internal/logging"
	"github.com/smazurov/doorlight/internal/version"
)

// Indicator is the indicator the API drives. led.Indicator satisfies it.
type Indicator interface {
	Push(action led.Action, repeats int)
	State() (led.Snapshot, bool)
}

// StatusSource reports the patterns in effect and the last status shown.
// led.Manager satisfies it.
type StatusSource interface {
	Patterns() led.Patterns
	LastStatus() string
}

// DoorSensor reports the settled door state. relay.Monitor satisfies it.
type DoorSensor interface {
	State() (open bool, known bool)
}

// Options configures the API server.
type Options struct {
	AuthUsername string
	AuthPassword string

	Indicator       Indicator // nil when no indicator is running
	IndicatorConfig led.Config
	Status          StatusSource
	Door            DoorSensor // nil when the relay monitor is disabled
	DoorPin         string
	EventBus        *events.Bus
	History         *logging.History

	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the doorlight HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server on a Go 1.22+ ServeMux.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("Doorlight API", version.String())
	config.Info.Description = "Status indicator and door sensor control"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)
	server := newServer(api, opts)
	server.mux = mux

	api.UseMiddleware(HTTPLoggingMiddleware(logging.GetLogger("http")))
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(basicAuthMiddleware(api, opts.AuthUsername, opts.AuthPassword))
	}

	// Registered on the mux directly so scrapers need no credentials.
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// newServer builds a Server around an existing huma.API without
// registering routes.
func newServer(api huma.API, opts *Options) *Server {
	if opts.History == nil {
		opts.History = logging.GetHistory()
	}
	if opts.EventBus == nil {
		opts.EventBus = events.New()
	}
	if opts.IndicatorConfig == (led.Config{}) {
		opts.IndicatorConfig = led.DefaultConfig()
	}
	return &Server{
		api:      api,
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves the API on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting doorlight API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and all open connections, including SSE streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerIndicatorRoutes()
	s.registerStatusRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
