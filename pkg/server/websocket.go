package server

import (
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edom-dev/edom/pkg/protocol"
)

// ReadLoop continuously reads messages from the WebSocket connection.
// It decodes frames, answers control messages and queues events.
// This method blocks until the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && !s.closed.Load() {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}
		s.metrics.frameReceived(frame.Type, len(msg))

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)
		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

// handleEventFrame decodes and queues an event from the client.
func (s *Session) handleEventFrame(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Error("event decode error", "error", err)
		s.sendError(err, false)
		return
	}

	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped", "uid", ev.UID, "name", ev.Name)
		s.sendError(ErrEventQueueFull, false)
	}
}

// handleControlFrame handles control messages (ping, pong, close).
func (s *Session) handleControlFrame(payload []byte) {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return
	}

	switch c.Type {
	case protocol.ControlPing:
		f := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.NewPong(c)))
		if err := s.write(f); err != nil {
			s.logger.Error("pong error", "error", err)
		}
	case protocol.ControlPong:
		s.logger.Debug("received pong")
	case protocol.ControlClose:
		s.logger.Info("client closing", "reason", c.Reason.String(), "message", c.Message)
		s.Close()
	}
}

// WriteLoop sends heartbeat pings until the session is closed.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ping := protocol.NewPing(uint64(time.Now().UnixMilli()))
			if err := s.write(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ping))); err != nil {
				s.logger.Debug("ping failed", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// EventLoop runs queued events and updates one at a time. An engine only
// ever sees one pass at a time because every cycle runs here.
func (s *Session) EventLoop() {
	for {
		select {
		case ev := <-s.events:
			s.run(&Cycle{SessionID: s.ID, Kind: CycleEvent, Event: ev})
		case fn := <-s.updates:
			s.run(&Cycle{SessionID: s.ID, Kind: CycleUpdate, update: fn})
		case <-s.done:
			return
		}
	}
}

// run executes one cycle through the middleware chain. A failed cycle is
// reported to the client; if the engine aborted the session is closed,
// otherwise the event is dropped and the session goes on.
func (s *Session) run(c *Cycle) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panic", "panic", r, "stack", string(debug.Stack()))
			s.CloseWithReason(protocol.CloseError, "internal error")
		}
	}()

	s.touch()
	err := s.cycle(s.ctx, c)
	if err == nil {
		return
	}

	if aborted := s.Err(); aborted != nil {
		s.logger.Error("engine aborted", "error", aborted)
		s.metrics.aborted.Inc()
		s.sendError(aborted, true)
		s.CloseWithReason(protocol.CloseError, aborted.Error())
		return
	}
	s.logger.Warn("cycle rejected", "kind", c.Kind, "error", err)
	s.sendError(err, false)
}

// Start starts all session loops. It must be called after the handshake.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
	go s.EventLoop()
}
