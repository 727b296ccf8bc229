// Package noop is a host backend that keeps only the node structure. It
// stores no attributes or text and delivers no events, so passes over it
// measure the engine's own cost.
package noop

import "github.com/edom-dev/edom/pkg/host"

// Backend is a host.Backend whose documents do no work beyond tracking
// child order.
type Backend struct{}

// NewDocument implements host.Backend.
func (Backend) NewDocument() host.Document { return Document{} }

// NewEventHandler implements host.Backend.
func (Backend) NewEventHandler(*host.DispatchSlot) host.EventHandler { return EventHandler{} }

// Document implements host.Document.
type Document struct{}

// CreateElement implements host.Document.
func (Document) CreateElement(string) host.Element { return &Element{} }

// CreateText implements host.Document.
func (Document) CreateText(s string) host.Text { return &Text{data: s} }

// Log implements host.Document. It discards.
func (Document) Log(string, ...string) {}

// EventHandler implements host.EventHandler. It registers nothing.
type EventHandler struct{}

// Listen implements host.EventHandler.
func (EventHandler) Listen(host.Element, uint64, string) {}

// Event implements host.Event.
type Event struct{}

// PreventDefault implements host.Event.
func (Event) PreventDefault() {}

// Text is a text node. It keeps its data so distinct nodes never share an
// address.
type Text struct {
	data string
}

func (*Text) IsText() bool   { return true }
func (t *Text) Data() string { return t.data }

// Element is an element node holding only its children.
type Element struct {
	children []host.Node
}

// NewElement returns a root element to mount on.
func NewElement() *Element { return &Element{} }

func (*Element) IsText() bool { return false }

func (e *Element) AppendChild(n host.Node)  { e.children = append(e.children, n) }
func (e *Element) PrependChild(n host.Node) { e.insert(0, n) }
func (e *Element) AppendText(t host.Text)   { e.children = append(e.children, t) }

func (e *Element) InsertBefore(n, ref host.Node) {
	e.detach(n)
	if i := e.index(ref); i >= 0 {
		e.insert(i, n)
		return
	}
	e.children = append(e.children, n)
}

func (e *Element) InsertAfter(n, ref host.Node) {
	e.detach(n)
	e.insert(e.index(ref)+1, n)
}

func (e *Element) RemoveChild(n host.Node) { e.detach(n) }

// Remove is a no-op: noop nodes do not know their parent.
func (e *Element) Remove() {}

func (e *Element) SetAttribute(string, string) {}
func (e *Element) Attribute(string) string     { return "" }

func (e *Element) SetTextContent(s string) { e.children = []host.Node{&Text{data: s}} }

func (e *Element) ReplaceText(newText, oldText host.Text) {
	if i := e.index(oldText); i >= 0 {
		e.children[i] = newText
	}
}

func (e *Element) DeepClone() host.Element {
	c := &Element{children: make([]host.Node, len(e.children))}
	for i, n := range e.children {
		if el, ok := n.(*Element); ok {
			c.children[i] = el.DeepClone()
		} else {
			c.children[i] = &Text{data: n.(*Text).data}
		}
	}
	return c
}

func (e *Element) ChildNodes() []host.Node { return append([]host.Node(nil), e.children...) }

func (e *Element) ChildNode(i int) host.Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

func (e *Element) index(n host.Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (e *Element) insert(i int, n host.Node) {
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = n
}

func (e *Element) detach(n host.Node) {
	if i := e.index(n); i >= 0 {
		e.children = append(e.children[:i], e.children[i+1:]...)
	}
}
