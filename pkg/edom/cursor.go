package edom

import (
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/vdom"
)

// Cursor is positioned on one element during one pass. In create mode its
// methods build the element; in update mode they compare against what was
// built before and patch the host where values changed.
//
// A Cursor is valid only for the pass that produced it, and only until its
// parent starts the next child. Using it afterwards is a contract violation.
type Cursor struct {
	eng *Engine
	el  *vdom.Element

	// parent is used only to resolve el's host node; hostIndex is el's
	// position among the parent's host children.
	parent    *Cursor
	hostIndex int

	attrPos     int
	childPos    int
	eventPos    int
	nextHostPos int

	// last is the most recent child cursor, checked for completeness when
	// the next sibling starts or the parent finishes.
	last   *Cursor
	pass   uint64
	closed bool
}

// UID returns the engine-assigned id of the element under the cursor.
func (c *Cursor) UID() uint64 {
	return c.el.UID
}

// Name returns the element name.
func (c *Cursor) Name() string {
	return c.el.Name
}

// Creating reports whether the cursor is building new content.
func (c *Cursor) Creating() bool {
	return c.eng.create
}

// HostElement returns the host node of the element, resolving it through
// the parent cursor on first use.
func (c *Cursor) HostElement() host.Element {
	return c.el.Host.Resolve(func() host.Element {
		if c.parent == nil {
			vdom.Violate("E103", c.el, "element has no host node and no parent to resolve it from")
		}
		n := c.parent.HostElement().ChildNode(c.hostIndex)
		h, ok := host.AsElement(n)
		if !ok {
			vdom.Violate("E103", c.el, "host child %d of %s is not an element", c.hostIndex, c.parent.el.Name)
		}
		return h
	})
}

// Element starts the next child element and returns a cursor on it.
func (c *Cursor) Element(name string) *Cursor {
	c.check()
	c.closeLast()
	e := c.eng

	var child *vdom.Element
	if e.create {
		h := e.doc.CreateElement(name)
		child = vdom.NewElement(name, h, e.nextUID())
		c.HostElement().AppendChild(h)
		c.el.Children = append(c.el.Children, vdom.NewElementNode(child))
		c.childPos++
		e.stats.Created++
	} else {
		child = c.next(vdom.KindElement).Elem
		if child.Name != name {
			vdom.Violate("E105", child, "expected <%s>, found <%s>", name, child.Name)
		}
	}

	cc := c.child(child, c.nextHostPos)
	c.nextHostPos++
	c.last = cc
	return cc
}

// Attr sets an attribute. Attributes are positional: the same names must be
// set in the same order on every pass. The host is written only when the
// value differs from the previous pass.
func (c *Cursor) Attr(name, value string) *Cursor {
	c.check()
	if c.eng.create {
		c.el.Attrs = append(c.el.Attrs, vdom.Attr{Name: name, Value: value})
		c.HostElement().SetAttribute(name, value)
	} else {
		if c.attrPos >= len(c.el.Attrs) {
			vdom.Violate("E101", c.el, "attribute %q is new; element has %d attributes", name, len(c.el.Attrs))
		}
		a := &c.el.Attrs[c.attrPos]
		if a.Name != name {
			vdom.Violate("E101", c.el, "expected attribute %q at position %d, found %q", a.Name, c.attrPos, name)
		}
		if a.Value != value {
			a.Value = value
			c.HostElement().SetAttribute(name, value)
		}
	}
	c.attrPos++
	return c
}

// Text adds a text child.
func (c *Cursor) Text(s string) *Cursor {
	c.check()
	c.closeLast()
	e := c.eng

	if e.create {
		if len(c.el.Children) == 0 {
			c.HostElement().SetTextContent(s)
			c.el.Children = append(c.el.Children, vdom.NewText(s, nil))
		} else {
			t := e.doc.CreateText(s)
			c.HostElement().AppendText(t)
			c.el.Children = append(c.el.Children, vdom.NewText(s, t))
		}
		c.childPos++
	} else {
		n := c.next(vdom.KindText)
		if n.Text != s {
			c.replaceText(n, s)
		}
	}
	c.nextHostPos++
	return c
}

func (c *Cursor) replaceText(n *vdom.Node, s string) {
	n.Text = s
	h := c.HostElement()
	if len(c.el.Children) == 1 {
		h.SetTextContent(s)
		n.TextHost = nil
		return
	}
	old := n.TextHost
	if old == nil {
		t, ok := host.AsText(h.ChildNode(c.nextHostPos))
		if !ok {
			vdom.Violate("E103", c.el, "host child %d is not a text node", c.nextHostPos)
		}
		old = t
	}
	t := c.eng.doc.CreateText(s)
	h.ReplaceText(t, old)
	n.TextHost = t
}

// On registers a listener in create mode. In update mode fn runs when the
// pass was started by this element's event.
func (c *Cursor) On(name string, fn func(host.Event)) *Cursor {
	if ev, ok := c.Event(name); ok {
		fn(ev)
	}
	return c
}

// Event is On without a callback: it reports whether the event being
// dispatched is name fired on this element.
func (c *Cursor) Event(name string) (host.Event, bool) {
	c.check()
	e := c.eng
	defer func() { c.eventPos++ }()

	if e.create {
		c.el.Events = append(c.el.Events, name)
		e.handler.Listen(c.HostElement(), c.el.UID, name)
		return nil, false
	}
	if c.eventPos >= len(c.el.Events) || c.el.Events[c.eventPos] != name {
		vdom.Violate("E106", c.el, "event %q not registered at position %d (registered: %v)", name, c.eventPos, c.el.Events)
	}
	if ev := e.firing; ev != nil && ev.uid == c.el.UID && ev.name == name {
		return ev.event, true
	}
	return nil, false
}

// setStoredAttr records the value of the attribute at position i without
// writing it to the host. Inputs use it after reading a value the user
// already put in the host.
func (c *Cursor) setStoredAttr(i int, value string) {
	c.el.Attrs[i].Value = value
}

func (c *Cursor) child(el *vdom.Element, hostIndex int) *Cursor {
	return &Cursor{eng: c.eng, el: el, parent: c, hostIndex: hostIndex, pass: c.pass}
}

func (c *Cursor) next(kind vdom.Kind) *vdom.Node {
	if c.childPos >= len(c.el.Children) {
		vdom.Violate("E100", c.el, "new %s child at position %d; element has %d children", kind, c.childPos, len(c.el.Children))
	}
	n := c.el.Children[c.childPos]
	if n.Kind != kind {
		vdom.Violate("E100", c.el, "expected %s at child %d, found %s", kind, c.childPos, n.Kind)
	}
	c.childPos++
	return n
}

func (c *Cursor) check() {
	if !c.eng.rendering || c.pass != c.eng.pass {
		vdom.Violate("E107", c.el, "cursor from pass %d used during pass %d", c.pass, c.eng.pass)
	}
	if c.closed {
		vdom.Violate("E107", c.el, "cursor used after its parent moved past it")
	}
}

func (c *Cursor) closeLast() {
	if c.last != nil {
		c.last.finish()
		c.last = nil
	}
}

// finish verifies that every recorded child, attribute and event was
// visited, and closes the cursor.
func (c *Cursor) finish() {
	c.closeLast()
	c.closed = true
	if c.childPos != len(c.el.Children) {
		vdom.Violate("E100", c.el, "%d of %d children visited", c.childPos, len(c.el.Children))
	}
	if c.attrPos != len(c.el.Attrs) {
		vdom.Violate("E101", c.el, "%d of %d attributes set", c.attrPos, len(c.el.Attrs))
	}
	if c.eventPos != len(c.el.Events) {
		vdom.Violate("E106", c.el, "%d of %d events registered", c.eventPos, len(c.el.Events))
	}
}
