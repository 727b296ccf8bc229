package remote

import (
	"log/slog"
	"strconv"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/protocol"
)

// Backend is a host.Backend for an engine whose host tree lives in a
// browser. The engine renders into a memdom mirror; every mutation of the
// mirror is converted to a protocol.HostOp and buffered until Flush.
//
// A Backend belongs to one engine and is used from the engine's goroutine.
type Backend struct {
	doc       *memdom.Document
	mem       *memdom.Backend
	slot      *host.DispatchSlot
	pending   []protocol.HostOp
	seq       uint64
	listeners map[uint64]uint64 // listener uid -> element id
	released  bool              // listeners may point at released nodes
	logger    *slog.Logger
}

// NewBackend returns a backend over a fresh mirror document.
func NewBackend() *Backend {
	doc := memdom.NewDocument()
	b := &Backend{
		doc:       doc,
		mem:       memdom.NewBackend(doc),
		listeners: make(map[uint64]uint64),
		logger:    slog.Default().With("component", "remote"),
	}
	doc.Observe(b.record)
	return b
}

// SetLogger replaces the backend logger.
func (b *Backend) SetLogger(l *slog.Logger) {
	b.logger = l
	b.doc.SetLogger(l)
}

// NewDocument implements host.Backend.
func (b *Backend) NewDocument() host.Document {
	return b.doc
}

// NewEventHandler implements host.Backend.
func (b *Backend) NewEventHandler(slot *host.DispatchSlot) host.EventHandler {
	b.slot = slot
	return b.mem.NewEventHandler(slot)
}

// Document returns the mirror document.
func (b *Backend) Document() *memdom.Document {
	return b.doc
}

// Pending returns the number of buffered ops.
func (b *Backend) Pending() int {
	return len(b.pending)
}

// Seq returns the sequence number of the last flushed frame.
func (b *Backend) Seq() uint64 {
	return b.seq
}

// Flush returns the buffered ops as the next frame in sequence, or nil when
// nothing changed since the previous Flush.
func (b *Backend) Flush() *protocol.OpsFrame {
	if len(b.pending) == 0 {
		return nil
	}
	b.seq++
	of := &protocol.OpsFrame{Seq: b.seq, Ops: b.pending}
	b.pending = nil
	if b.released {
		b.pruneListeners()
	}
	return of
}

// Listeners returns the number of listener uids events can still reach.
func (b *Backend) Listeners() int {
	return len(b.listeners)
}

func (b *Backend) pruneListeners() {
	for uid, id := range b.listeners {
		if _, ok := b.doc.Lookup(id); !ok {
			delete(b.listeners, uid)
		}
	}
	b.released = false
}

func (b *Backend) record(m memdom.Mutation) {
	switch m.Op {
	case memdom.OpListen:
		b.listeners[m.UID] = m.Target
	case memdom.OpRelease:
		b.released = true
	}
	b.pending = append(b.pending, protocol.HostOp{
		Code:   protocol.OpCode(m.Op),
		Target: m.Target,
		Child:  m.Child,
		Ref:    m.Ref,
		Name:   m.Name,
		Value:  m.Value,
		UID:    m.UID,
	})
}

// HandleEvent delivers an event reported by the client. The properties in
// ev.Data ("value", "checked") are copied onto the mirror element first so
// handlers read what the user typed, then the listener fires through the
// dispatch slot. The returned error is the engine's dispatch result or a
// coded protocol error:
//
//	E122  no engine installed yet
//	E142  no element listens under ev.UID
//	E143  a property in ev.Data has the wrong type
func (b *Backend) HandleEvent(ev *protocol.Event) error {
	if b.slot == nil || !b.slot.Installed() {
		return errs.New("E122").WithDetailf("event %q for uid %d", ev.Name, ev.UID)
	}
	id, ok := b.listeners[ev.UID]
	if !ok {
		return errs.New("E142").WithDetailf("no listener registered under uid %d", ev.UID)
	}
	n, _ := b.doc.Lookup(id)
	el, ok := n.(*memdom.Element)
	if !ok {
		return errs.New("E142").WithDetailf("node #%d was released", id)
	}
	if err := applyProperties(el, ev.Data); err != nil {
		return err
	}

	b.logger.Debug("event", "uid", ev.UID, "name", ev.Name, "seq", ev.Seq)
	return b.slot.Fire(ev.UID, ev.Name, &memdom.Event{Type: ev.Name, Data: ev.Data})
}

func applyProperties(el *memdom.Element, data map[string]any) error {
	if v, ok := data["value"]; ok {
		s, ok := v.(string)
		if !ok {
			return errs.New("E143").WithDetailf("value is %T, want string", v)
		}
		el.SetProperty("value", s)
	}
	if v, ok := data["checked"]; ok {
		c, ok := v.(bool)
		if !ok {
			return errs.New("E143").WithDetailf("checked is %T, want bool", v)
		}
		el.SetProperty("checked", strconv.FormatBool(c))
	}
	return nil
}
