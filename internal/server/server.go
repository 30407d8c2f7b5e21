// Package server exposes the engine over HTTP JSON plus a WebSocket
// event stream.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patchbay-sh/patchbay/internal/capability"
	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/instances"
	"github.com/patchbay-sh/patchbay/internal/outputs"
	"github.com/patchbay-sh/patchbay/internal/resolution"
	"github.com/patchbay-sh/patchbay/internal/wiring"
)

// PrometheusExporter renders observability metrics in Prometheus
// exposition format.
type PrometheusExporter interface {
	Export() []byte
}

// Options configures the API server.
type Options struct {
	Binding string // listen address, defaults to 127.0.0.1
	Port    int    // 0 picks an ephemeral port
	Token   string // optional bearer token required on every endpoint
	Home    string // state directory reported by /daemon/status
}

// APIServer serves the engine's HTTP API.
type APIServer struct {
	registry   *capability.Registry
	catalog    *catalog.Catalog
	store      *configstore.Store
	instances  *instances.Service
	wiring     *wiring.Service
	outputs    *outputs.Service
	resolution *resolution.Service
	bus        *eventbus.Bus
	exporter   PrometheusExporter

	opts      Options
	startTime time.Time
	httpSrv   *http.Server
	listener  net.Listener

	// onShutdown is invoked by POST /daemon/shutdown.
	onShutdown func()
}

func New(
	registry *capability.Registry,
	cat *catalog.Catalog,
	store *configstore.Store,
	instancesSvc *instances.Service,
	wiringSvc *wiring.Service,
	outputsSvc *outputs.Service,
	resolutionSvc *resolution.Service,
	bus *eventbus.Bus,
	exporter PrometheusExporter,
	opts Options,
) *APIServer {
	if opts.Binding == "" {
		opts.Binding = "127.0.0.1"
	}
	return &APIServer{
		registry:   registry,
		catalog:    cat,
		store:      store,
		instances:  instancesSvc,
		wiring:     wiringSvc,
		outputs:    outputsSvc,
		resolution: resolutionSvc,
		bus:        bus,
		exporter:   exporter,
		opts:       opts,
		startTime:  time.Now(),
	}
}

// SetShutdownFunc installs the callback run when a client requests
// daemon shutdown.
func (s *APIServer) SetShutdownFunc(fn func()) {
	s.onShutdown = fn
}

func (s *APIServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /daemon/status", s.handleDaemonStatus)
	mux.HandleFunc("POST /daemon/shutdown", s.handleDaemonShutdown)

	mux.HandleFunc("GET /capabilities", s.handleCapabilities)
	mux.HandleFunc("GET /templates", s.handleTemplates)
	mux.HandleFunc("GET /templates/{id}", s.handleTemplate)

	mux.HandleFunc("GET /instances", s.handleInstancesList)
	mux.HandleFunc("POST /instances", s.handleInstanceCreate)
	mux.HandleFunc("GET /instances/{id}", s.handleInstanceGet)
	mux.HandleFunc("PATCH /instances/{id}", s.handleInstanceUpdate)
	mux.HandleFunc("DELETE /instances/{id}", s.handleInstanceDelete)

	mux.HandleFunc("GET /wiring", s.handleWiringList)
	mux.HandleFunc("GET /wiring/orphans", s.handleWiringOrphans)
	mux.HandleFunc("GET /instances/{id}/wiring", s.handleConsumerWiring)
	mux.HandleFunc("GET /instances/{id}/wiring/{capability}", s.handleWiringResolve)
	mux.HandleFunc("PUT /instances/{id}/wiring/{capability}", s.handleWiringConnect)
	mux.HandleFunc("DELETE /instances/{id}/wiring/{capability}", s.handleWiringDisconnect)

	mux.HandleFunc("GET /outputs", s.handleOutputsList)
	mux.HandleFunc("POST /outputs", s.handleOutputConnect)
	mux.HandleFunc("DELETE /outputs/{id}", s.handleOutputDisconnect)
	mux.HandleFunc("GET /instances/{id}/inputs", s.handleInputs)

	mux.HandleFunc("GET /instances/{id}/config", s.handleEffectiveConfig)
	mux.HandleFunc("GET /instances/{id}/validate", s.handleValidate)

	mux.HandleFunc("GET /settings", s.handleSettingsList)
	mux.HandleFunc("PUT /settings/{path...}", s.handleSettingPut)
	mux.HandleFunc("DELETE /settings/{path...}", s.handleSettingDelete)

	mux.HandleFunc("GET /events", s.handleEvents)

	return s.withAuth(mux)
}

// withAuth enforces the bearer token on every endpoint except the health
// probe. With no token configured the server trusts its loopback binding.
func (s *APIServer) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token == "" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.tokenMatches(r) {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) tokenMatches(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		// WebSocket clients cannot set headers from browsers; accept the
		// token as a query parameter on the events stream only.
		if r.URL.Path != "/events" {
			return false
		}
		presented = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), []byte(s.opts.Token)) == 1
}

// Start binds the listener and serves until Shutdown.
func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Binding, s.opts.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[APIServer] listening on %s", listener.Addr())
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[APIServer] serve: %v", err)
		}
	}()
	return nil
}

// Port returns the bound port, valid after Start.
func (s *APIServer) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown drains in-flight requests.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *APIServer) Handler() http.Handler {
	return s.routes()
}
