package edom

import (
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/vdom"
)

// RenderIf renders a tag element described by fn while cond holds.
//
// The first time cond is true the element is built and attached. When cond
// turns false the host node is detached but kept, together with its virtual
// subtree, and re-attached unchanged the next time cond is true before fn
// patches it.
func (c *Cursor) RenderIf(cond bool, tag string, fn func(*Cursor)) {
	c.check()
	c.closeLast()

	var n *vdom.Node
	if c.eng.create {
		n = vdom.NewConditional(vdom.NotRendered, placeholder(tag))
		c.el.Children = append(c.el.Children, n)
		c.childPos++
	} else {
		n = c.next(vdom.KindConditional)
		if n.State != vdom.NotRendered && n.Elem.Name != tag {
			vdom.Violate("E105", n.Elem, "conditional is <%s>, expected <%s>", n.Elem.Name, tag)
		}
	}

	switch {
	case cond && n.State == vdom.NotRendered:
		n.Elem = c.build(tag, c.nextHostPos, fn)
		c.insertAt(n.Elem.Host.MustGet())
		n.SetState(vdom.Visible)

	case cond && n.State == vdom.Hidden:
		c.insertAt(n.Elem.Host.MustGet())
		n.SetState(vdom.Visible)
		c.descend(n.Elem, fn)

	case cond:
		c.descend(n.Elem, fn)

	case n.State == vdom.Visible:
		cc := c.child(n.Elem, c.nextHostPos)
		c.HostElement().RemoveChild(cc.HostElement())
		n.SetState(vdom.Hidden)
	}

	if cond {
		c.nextHostPos++
	}
}

// insertAt attaches h at the cursor's next host position.
func (c *Cursor) insertAt(h host.Element) {
	parent := c.HostElement()
	parent.InsertBefore(h, parent.ChildNode(c.nextHostPos))
	c.eng.stats.Attached++
}

func (c *Cursor) descend(el *vdom.Element, fn func(*Cursor)) {
	cc := c.child(el, c.nextHostPos)
	fn(cc)
	cc.finish()
}
