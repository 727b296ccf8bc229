package edom

import (
	"log/slog"
	"time"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/vdom"
)

// RootName is the element name recorded for the mount point.
const RootName = "#root"

// Stats counts engine work.
type Stats struct {
	Passes     int // completed passes of any kind
	Dispatches int // events delivered through Dispatch
	Created    int // elements created from scratch
	Cloned     int // list items produced by cloning a sibling
	Attached   int // host nodes attached or re-attached during the last Dispatch or Update
}

type pendingEvent struct {
	uid   uint64
	name  string
	event host.Event
}

// Engine owns the virtual tree of one mounted root and runs passes over it.
type Engine struct {
	doc     host.Document
	handler host.EventHandler
	slot    *host.DispatchSlot
	root    *vdom.Element
	render  func(*Cursor)

	lastUID   uint64
	create    bool
	firing    *pendingEvent
	pass      uint64
	rendering bool
	aborted   *errs.Error

	cloneForEach bool
	partialClone bool

	logger *slog.Logger
	stats  Stats
}

// Mount renders fn into root in create mode and installs the engine as the
// backend's dispatcher. root must be empty.
func Mount(backend host.Backend, root host.Element, fn func(*Cursor), opts ...Option) (*Engine, error) {
	slot := host.NewDispatchSlot()
	e := &Engine{
		doc:          backend.NewDocument(),
		handler:      backend.NewEventHandler(slot),
		slot:         slot,
		render:       fn,
		cloneForEach: true,
		partialClone: true,
		logger:       slog.Default().With("component", "edom"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.root = vdom.NewElement(RootName, root, e.nextUID())

	e.create = true
	err := e.run(nil)
	e.create = false
	if err != nil {
		return nil, err
	}

	slot.Install(e.Dispatch)
	return e, nil
}

// Dispatch delivers an event fired on the element with the given uid: an
// effect pass runs the matching handler, then a render pass brings the host
// up to date with whatever the handler changed.
func (e *Engine) Dispatch(uid uint64, name string, ev host.Event) error {
	e.stats.Dispatches++
	e.stats.Attached = 0
	if err := e.run(&pendingEvent{uid: uid, name: name, event: ev}); err != nil {
		return err
	}
	return e.run(nil)
}

// Update runs one render pass without an event. Use it after changing
// application state outside of an event handler.
func (e *Engine) Update() error {
	e.stats.Attached = 0
	return e.run(nil)
}

// Root returns the virtual tree. It must not be modified.
func (e *Engine) Root() *vdom.Element {
	return e.root
}

// Document returns the host document the engine creates nodes in.
func (e *Engine) Document() host.Document {
	return e.doc
}

// Slot returns the dispatch slot shared with the backend's event handler.
func (e *Engine) Slot() *host.DispatchSlot {
	return e.slot
}

// Stats returns a copy of the work counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Err returns the violation that aborted the engine, or nil.
func (e *Engine) Err() error {
	if e.aborted == nil {
		return nil
	}
	return e.aborted
}

func (e *Engine) nextUID() uint64 {
	e.lastUID++
	return e.lastUID
}

func (e *Engine) run(ev *pendingEvent) (err error) {
	if e.aborted != nil {
		return errs.New("E120").Wrap(e.aborted)
	}
	if e.rendering {
		v := errs.New("E108").WithDetailf("pass %d is still running", e.pass)
		e.abort(v)
		return v
	}

	start := time.Now()
	e.rendering = true
	e.pass++
	e.firing = ev

	defer func() {
		e.rendering = false
		e.firing = nil
		if r := recover(); r != nil {
			v, ok := r.(*ContractViolation)
			if !ok {
				panic(r)
			}
			e.abort(v.Err)
			err = v.Err
		}
	}()

	c := &Cursor{eng: e, el: e.root, pass: e.pass}
	e.render(c)
	c.finish()

	if e.aborted != nil {
		return e.aborted
	}
	e.stats.Passes++
	e.logger.Debug("pass complete",
		"pass", e.pass,
		"mode", e.mode(ev),
		"duration", time.Since(start))
	return nil
}

func (e *Engine) mode(ev *pendingEvent) string {
	switch {
	case e.create:
		return "create"
	case ev != nil:
		return "effect"
	default:
		return "render"
	}
}

func (e *Engine) abort(err *errs.Error) {
	if e.aborted == nil {
		e.aborted = err
	}
	e.logger.Error("contract violation", "code", err.Code, "error", err.FormatCompact())
	e.doc.Log("edom: contract violation", err.Error())
}
