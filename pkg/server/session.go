package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/protocol"
	"github.com/edom-dev/edom/pkg/remote"
)

// Session is one mounted engine and, once the page's client connects, the
// WebSocket carrying its ops and events.
//
// The engine is created when the page is served so the first response
// already carries the rendered markup. Ops frames produced before the
// socket attaches are held and sent right after the handshake.
type Session struct {
	ID        string
	CreatedAt time.Time

	// mu guards the engine, the backend and writes to conn.
	mu      sync.Mutex
	backend *remote.Backend
	root    *memdom.Element
	engine  *edom.Engine
	conn    *websocket.Conn
	unsent  []*protocol.Frame

	lastActive atomic.Int64
	attached   atomic.Bool
	closed     atomic.Bool
	closeOnce  sync.Once

	events  chan *protocol.Event
	updates chan func()
	done    chan struct{}

	ctx     context.Context
	span    trace.Span
	cycle   CycleFunc
	config  *Config
	metrics *metrics
	logger  *slog.Logger
	onClose func(*Session)
}

type sessionDeps struct {
	config     *Config
	metrics    *metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	middleware []Middleware
	engineOpts []edom.Option
}

func newSession(id string, render func(*edom.Cursor), deps sessionDeps) (*Session, error) {
	logger := deps.logger.With("session_id", id)

	backend := remote.NewBackend()
	backend.SetLogger(logger)
	root := backend.Document().NewElement("div")

	opts := append([]edom.Option{edom.WithLogger(logger)}, deps.engineOpts...)
	engine, err := edom.Mount(backend, root, render, opts...)
	if err != nil {
		return nil, err
	}

	ctx, span := deps.tracer.Start(context.Background(), "edom.session",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("edom.session_id", id)),
	)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		backend:   backend,
		root:      root,
		engine:    engine,
		events:    make(chan *protocol.Event, deps.config.MaxEventQueue),
		updates:   make(chan func(), deps.config.MaxEventQueue),
		done:      make(chan struct{}),
		ctx:       ctx,
		span:      span,
		config:    deps.config,
		metrics:   deps.metrics,
		logger:    logger,
	}
	s.cycle = chain(s.runCycle, deps.middleware)
	s.touch()

	if of := backend.Flush(); of != nil {
		s.unsent = append(s.unsent, opsFrame(of, protocol.FlagCreate))
	}
	return s, nil
}

// HTML returns the current markup of the mounted tree.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root.OuterHTML()
}

// RootID returns the host id of the mount element.
func (s *Session) RootID() uint64 {
	return memdom.ID(s.root)
}

// LastActive returns the time of the last frame or update.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Attached reports whether a client connection is attached.
func (s *Session) Attached() bool {
	return s.attached.Load()
}

// Err returns the error that aborted the engine, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Err()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Update queues fn to run on the session's event loop, followed by one
// update pass. fn may change application state freely; the render pass
// picks the changes up.
func (s *Session) Update(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.updates <- fn:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrEventQueueFull
	}
}

// attach binds conn to the session and sends the handshake reply followed
// by every ops frame produced so far.
func (s *Session) attach(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.attached.CompareAndSwap(false, true) {
		return ErrSessionAttached
	}
	s.conn = conn
	s.touch()

	nextSeq := s.backend.Seq() - uint64(len(s.unsent)) + 1
	hello := protocol.NewServerHello(s.ID, s.RootID(), nextSeq)
	if err := s.writeLocked(protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeServerHello(hello))); err != nil {
		return err
	}
	for _, f := range s.unsent {
		if err := s.writeLocked(f); err != nil {
			return err
		}
	}
	s.unsent = nil
	s.span.AddEvent("attached")
	return nil
}

// runCycle is the innermost CycleFunc.
func (s *Session) runCycle(_ context.Context, c *Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch c.Kind {
	case CycleEvent:
		err = s.backend.HandleEvent(c.Event)
	case CycleUpdate:
		if c.update != nil {
			c.update()
		}
		err = s.engine.Update()
	}

	of := s.backend.Flush()
	if of == nil {
		return err
	}
	f := opsFrame(of, 0)
	c.Ops, c.Bytes = len(of.Ops), len(f.Payload)
	s.metrics.opsSent.Add(float64(c.Ops))
	if s.conn == nil {
		s.unsent = append(s.unsent, f)
		return err
	}
	if werr := s.writeLocked(f); werr != nil && err == nil {
		err = werr
	}
	return err
}

func opsFrame(of *protocol.OpsFrame, flags protocol.FrameFlags) *protocol.Frame {
	return protocol.NewFrameWithFlags(protocol.FrameOps, protocol.FlagSequenced|flags, protocol.EncodeOps(of))
}

// write sends one frame on the attached connection.
func (s *Session) write(f *protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(f)
}

func (s *Session) writeLocked(f *protocol.Frame) error {
	if s.conn == nil {
		return ErrNoConnection
	}
	data := f.Encode()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	s.metrics.frameSent(f.Type, len(data))
	return nil
}

// sendError reports err to the client.
func (s *Session) sendError(err error, fatal bool) {
	em := protocol.NewErrorMessage(err, fatal)
	if werr := s.write(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))); werr != nil {
		s.logger.Debug("error frame not sent", "error", werr)
	}
}

// Close closes the session normally.
func (s *Session) Close() {
	s.CloseWithReason(protocol.CloseNormal, "")
}

// CloseWithReason tells the client why the session ends, closes the
// connection and releases the session.
func (s *Session) CloseWithReason(reason protocol.CloseReason, message string) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)

		s.mu.Lock()
		if s.conn != nil {
			f := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.NewClose(reason, message)))
			_ = s.writeLocked(f)
			s.conn.Close()
		}
		err := s.engine.Err()
		s.mu.Unlock()

		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.SetAttributes(attribute.String("edom.close_reason", reason.String()))
		s.span.End()

		s.logger.Info("session closed", "reason", reason.String())
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
