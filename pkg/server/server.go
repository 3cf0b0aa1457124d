// Package server exposes the device bridge over HTTP.
package server

import (
	"net/http"

	"github.com/devicelab-dev/adbridge/pkg/config"
	"github.com/devicelab-dev/adbridge/pkg/device"
	"github.com/devicelab-dev/adbridge/pkg/inspector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP control server for adbridge.
type Server struct {
	router    chi.Router
	bridge    *device.Bridge
	inspector *inspector.Inspector
	metrics   *metrics
	log       *zap.Logger
	cfg       config.Config
}

// New creates and configures the HTTP server.
func New(bridge *device.Bridge, log *zap.Logger, cfg config.Config) *Server {
	s := &Server{
		bridge:    bridge,
		inspector: inspector.New(),
		metrics:   newMetrics(prometheus.NewRegistry()),
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(s.metrics.middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	// Device control.
	r.Get("/run-command", s.handleRunCommand)
	r.Get("/get-device-list", s.handleDeviceList)
	r.Get("/connect-device", s.handleConnect)
	r.Get("/tap", s.handleTap)
	r.Get("/swipe", s.handleSwipe)
	r.Get("/type", s.handleType)
	r.Get("/go-to-home", s.handleGoHome)
	r.Get("/screenshot", s.handleScreenshot)
	r.Get("/get-resolution", s.handleResolution)
	r.Get("/battery-details", s.handleBattery)
	r.Get("/service-check", s.handleServiceCheck)
	r.Get("/screen-awake", s.handleScreenAwake)
	r.Get("/turn-off-screen-stay-on", s.handleScreenStayOnOff)
	r.Get("/wait", s.handleWait)

	// Apps.
	r.Get("/list-installed-apps", s.handleListApps)
	r.Get("/app-exists", s.handleAppExists)
	r.Get("/clear-app-cache", s.handleClearApp)
	r.Get("/open-app", s.handleOpenApp)
	r.Get("/install-app", s.handleInstallApp)

	// UI hierarchy.
	r.Get("/dump-window-xml", s.handleDump)
	r.Get("/exists-in-dump", s.handleExistsInDump)
	r.Get("/find-nearest-node", s.handleFindNearestNode)
	r.Get("/find-node-by-xpath", s.handleFindByXPath)
	r.Get("/get-current-input-text", s.handleCurrentInputText)
	r.Get("/clear-current-input", s.handleClearCurrentInput)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// device returns the device a request targets: the device query
// parameter, else the configured default, else whatever adb picks.
func (s *Server) device(r *http.Request) *device.AndroidDevice {
	serial := r.URL.Query().Get("device")
	if serial == "" {
		serial = s.cfg.ADB.DefaultDevice
	}
	return s.bridge.Device(serial)
}

// HTTPServer returns an http.Server serving s on the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
}
