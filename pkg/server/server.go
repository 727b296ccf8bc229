package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/protocol"
	"github.com/edom-dev/edom/pkg/render"
	"github.com/edom-dev/edom/pkg/snapshot"
)

// SocketPath is the WebSocket endpoint.
const SocketPath = "/ws"

// App returns the render function of a new session. It is called once per
// page load, so state captured by the returned closure is per session.
type App func() func(*edom.Cursor)

// Server serves one engine per page load and keeps it in sync with the
// browser over a WebSocket.
type Server struct {
	app      App
	config   *Config
	sessions *SessionManager
	upgrader websocket.Upgrader
	router   chi.Router

	registry   *prometheus.Registry
	metrics    *metrics
	middleware []Middleware
	engineOpts []edom.Option
	snapshots  snapshot.Store
	tracer     trace.Tracer

	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions log through a child logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry sets the Prometheus registry the server registers its
// metrics in and serves on /metrics. Default: a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithMiddleware appends cycle middleware.
func WithMiddleware(mws ...Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mws...)
	}
}

// WithEngineOptions passes options to every mounted engine.
func WithEngineOptions(opts ...edom.Option) Option {
	return func(s *Server) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithSnapshots enables the snapshot endpoints backed by store.
func WithSnapshots(store snapshot.Store) Option {
	return func(s *Server) {
		s.snapshots = store
	}
}

// New creates a Server for app. A nil config uses DefaultConfig.
func New(app App, config *Config, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		app:    app,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		tracer: otel.Tracer("edom/server"),
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	var onSweep func()
	if s.snapshots != nil && config.SnapshotMaxAge > 0 {
		onSweep = s.sweepSnapshots
	}
	s.sessions = newSessionManager(config, s.metrics, s.logger, onSweep)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handlePage)
	r.Get(SocketPath, s.HandleWebSocket)
	r.Get(ClientPath, s.serveClient)
	r.Head(ClientPath, s.serveClient)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	if s.snapshots != nil {
		r.Post("/sessions/{id}/snapshot", s.handleTakeSnapshot)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	}
	return r
}

// Handler returns the server's HTTP handler for mounting in other routers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewSession mounts a fresh engine for the app and registers it.
func (s *Server) NewSession() (*Session, error) {
	return s.sessions.Create(func(id string) (*Session, error) {
		return newSession(id, s.app(), sessionDeps{
			config:     s.config,
			metrics:    s.metrics,
			logger:     s.logger,
			tracer:     s.tracer,
			middleware: s.middleware,
			engineOpts: s.engineOpts,
		})
	})
}

// handlePage creates a session and serves its server-rendered page. The
// client script attaches to the session over the socket.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	session, err := s.NewSession()
	if errors.Is(err, ErrMaxSessionsReached) {
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.logger.Error("mount failed", "error", err)
		http.Error(w, "mount failed", http.StatusInternalServerError)
		return
	}

	html := session.HTML()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	sr := render.NewStreamingRenderer(w, render.RendererConfig{})
	err = sr.RenderPage(render.PageData{
		Title:        s.config.Title,
		SessionID:    session.ID,
		SocketPath:   SocketPath,
		ClientScript: ClientPath,
		Body: render.ContentFunc(func(w io.Writer) error {
			_, err := io.WriteString(w, `<div id="edom-root">`+html+`</div>`)
			return err
		}),
	})
	if err != nil {
		s.logger.Debug("page write failed", "session_id", session.ID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// HandleWebSocket upgrades the connection, performs the handshake and
// attaches the connection to the session named in the client hello.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		s.logger.Error("handshake read failed", "error", err)
		conn.Close()
		return
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil || frame.Type != protocol.FrameHandshake {
		s.rejectHandshake(conn, protocol.HandshakeInvalidFormat)
		return
	}
	hello, err := protocol.DecodeClientHello(frame.Payload)
	if err != nil {
		s.rejectHandshake(conn, protocol.HandshakeInvalidFormat)
		return
	}
	if !hello.Version.Compatible() {
		s.logger.Warn("client version mismatch", "major", hello.Version.Major, "minor", hello.Version.Minor)
		s.rejectHandshake(conn, protocol.HandshakeVersionMismatch)
		return
	}

	session := s.sessions.Get(hello.SessionID)
	if session == nil || session.IsClosed() {
		s.rejectHandshake(conn, protocol.HandshakeSessionNotFound)
		return
	}
	if err := session.attach(conn); err != nil {
		status := protocol.HandshakeInternalError
		if errors.Is(err, ErrSessionAttached) || errors.Is(err, ErrSessionClosed) {
			status = protocol.HandshakeSessionNotFound
		}
		s.logger.Warn("attach failed", "session_id", session.ID, "error", err)
		s.rejectHandshake(conn, status)
		if status == protocol.HandshakeInternalError {
			session.CloseWithReason(protocol.CloseError, "attach failed")
		}
		return
	}

	s.metrics.handshakes.WithLabelValues(protocol.HandshakeOK.String()).Inc()
	s.logger.Info("session attached", "session_id", session.ID)
	conn.SetReadDeadline(time.Time{})
	session.Start()
}

// rejectHandshake sends a handshake error response and closes conn.
func (s *Server) rejectHandshake(conn *websocket.Conn, status protocol.HandshakeStatus) {
	s.metrics.handshakes.WithLabelValues(status.String()).Inc()
	payload := protocol.EncodeServerHello(protocol.NewServerHelloError(status))
	frame := protocol.NewFrame(protocol.FrameHandshake, payload)

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
	conn.Close()
}

func (s *Server) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(chi.URLParam(r, "id"))
	if session == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	snap := snapshot.New(session.ID, []byte(session.HTML()))
	if err := s.snapshots.Save(r.Context(), snap); err != nil {
		s.logger.Error("snapshot save failed", "session_id", session.ID, "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/snapshots/"+snap.ID)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": snap.ID})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, snapshot.ErrNotFound) {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("snapshot load failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Last-Modified", snap.CreatedAt.UTC().Format(http.TimeFormat))
	_, _ = w.Write(snap.HTML)
}

func (s *Server) sweepSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.CleanupInterval)
	defer cancel()
	n, err := s.snapshots.Cleanup(ctx, s.config.SnapshotMaxAge)
	if err != nil {
		s.logger.Warn("snapshot cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("snapshots removed", "count", n)
	}
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.HandshakeTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Registry returns the Prometheus registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}
