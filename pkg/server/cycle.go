package server

import (
	"context"

	"github.com/edom-dev/edom/pkg/protocol"
)

// CycleKind says what started a cycle.
type CycleKind string

const (
	// CycleEvent is a client event: an effect pass and a render pass.
	CycleEvent CycleKind = "event"
	// CycleUpdate is a server-side state change followed by one update pass.
	CycleUpdate CycleKind = "update"
)

// Cycle is one round of work on a session and the ops frame it produced.
// Ops and Bytes are filled in once the innermost handler returns.
type Cycle struct {
	SessionID string
	Kind      CycleKind
	Event     *protocol.Event // nil for updates
	Ops       int
	Bytes     int

	update func()
}

// CycleFunc runs a cycle.
type CycleFunc func(ctx context.Context, c *Cycle) error

// Middleware wraps every cycle of every session.
type Middleware func(next CycleFunc) CycleFunc

func chain(h CycleFunc, mws []Middleware) CycleFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
