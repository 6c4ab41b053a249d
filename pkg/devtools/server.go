package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOptions configures the inspector server.
type ServerOptions struct {
	// Addr is the listen address (default: "127.0.0.1:7341").
	Addr string

	// Recorder is the event source. Required.
	Recorder *Recorder

	// Gatherer serves /metrics. Defaults to the default Prometheus
	// gatherer; set it to the registry the graph's Metrics use when they
	// are not on the default one.
	Gatherer prometheus.Gatherer

	// Logger receives server logs. Defaults to slog.Default().
	Logger *slog.Logger

	// CheckOrigin guards the /events WebSocket upgrade. The default
	// accepts all origins; the server is meant to bind to loopback.
	CheckOrigin func(r *http.Request) bool
}

// Server serves a live inspector for one or more graphs: a JSON snapshot
// of recent graph activity, a WebSocket event stream and Prometheus
// metrics. It consumes only the public observer API; the engine itself
// performs no I/O.
type Server struct {
	options  ServerOptions
	recorder *Recorder
	logger   *slog.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer creates an inspector server for the given options.
func NewServer(options ServerOptions) *Server {
	if options.Addr == "" {
		options.Addr = "127.0.0.1:7341"
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checkOrigin := options.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Server{
		options:  options,
		recorder: options.Recorder,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Handler returns the inspector's routes for mounting in an external
// router:
//
//	GET /graph   — JSON snapshot of stats and recent events
//	GET /events  — WebSocket stream of live events
//	GET /metrics — Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/graph", s.handleGraph)
	r.Get("/events", s.handleEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.options.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start begins serving and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.options.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("devtools inspector listening", "addr", s.options.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.recorder.Snapshot()); err != nil {
		s.logger.Error("snapshot encode failed", "error", err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.recorder.Subscribe(256)
	defer cancel()

	// Drain the read side so close frames and pings are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
