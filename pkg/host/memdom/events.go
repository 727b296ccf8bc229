package memdom

import (
	"errors"
	"strconv"

	"github.com/edom-dev/edom/pkg/host"
)

// ErrNoListener is returned when firing an event nothing listens for.
var ErrNoListener = errors.New("memdom: no listener for event")

// Event is a fired event.
type Event struct {
	Type      string
	Data      map[string]any
	prevented bool
}

// NewEvent returns an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// PreventDefault implements host.Event.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// EventHandler registers listeners on memdom elements.
type EventHandler struct {
	slot *host.DispatchSlot
}

// Listen implements host.EventHandler. It stamps the element with a
// data-uid attribute the way a browser backend does.
func (h *EventHandler) Listen(el host.Element, uid uint64, name string) {
	e, ok := el.(*Element)
	if !ok {
		panic("memdom: Listen on foreign element")
	}
	e.SetAttribute("data-uid", strconv.FormatUint(uid, 10))
	e.listeners = append(e.listeners, listener{name: name, uid: uid, slot: h.slot})
	e.doc.emit(Mutation{Op: OpListen, Target: e.id, Name: name, UID: uid})
}

// Backend is a host.Backend over one Document.
type Backend struct {
	Doc *Document
}

// NewBackend returns a backend that hands out doc.
func NewBackend(doc *Document) *Backend {
	return &Backend{Doc: doc}
}

// NewDocument implements host.Backend.
func (b *Backend) NewDocument() host.Document {
	return b.Doc
}

// NewEventHandler implements host.Backend.
func (b *Backend) NewEventHandler(slot *host.DispatchSlot) host.EventHandler {
	return &EventHandler{slot: slot}
}

// Fire reports ev to every listener registered for name on e, in
// registration order.
func (e *Element) Fire(name string, ev *Event) error {
	fired := false
	for _, l := range e.listeners {
		if l.name != name {
			continue
		}
		fired = true
		if err := l.slot.Fire(l.uid, name, ev); err != nil {
			return err
		}
	}
	if !fired {
		return ErrNoListener
	}
	return nil
}

// Click fires a "click" event.
func (e *Element) Click() error {
	return e.Fire("click", NewEvent("click"))
}

// Input sets the value property and fires an "input" event.
func (e *Element) Input(value string) error {
	e.value = value
	return e.Fire("input", &Event{Type: "input", Data: map[string]any{"value": value}})
}

// Toggle flips the checked property and fires an "input" event.
func (e *Element) Toggle() error {
	e.checked = !e.checked
	return e.Fire("input", &Event{Type: "input", Data: map[string]any{"checked": e.checked}})
}

// Listeners returns the event names registered on e.
func (e *Element) Listeners() []string {
	names := make([]string, len(e.listeners))
	for i, l := range e.listeners {
		names[i] = l.name
	}
	return names
}
