package edom

import (
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/vdom"
)

// newItem builds the element for a new list item, detached from the host.
// When cloning is enabled and prev can be cloned, prev's host subtree is
// copied and fn patches the copy in update mode; otherwise fn builds the
// element in create mode.
func newItem[T any](c *Cursor, item *T, prev *vdom.Element, tag string, hostIndex int, fn func(*T, *Cursor)) *vdom.Element {
	e := c.eng
	if prev == nil || !e.cloneForEach || !prev.Clonable() {
		return c.build(tag, hostIndex, func(ic *Cursor) { fn(item, ic) })
	}

	el := e.cloneElement(prev)
	e.stats.Cloned++
	ic := c.child(el, hostIndex)
	saved := e.create
	e.create = false
	fn(item, ic)
	ic.finish()
	e.create = saved
	return el
}

// build creates a tag element with a fresh host node and runs fn on it in
// create mode. The host node is not attached.
func (c *Cursor) build(tag string, hostIndex int, fn func(*Cursor)) *vdom.Element {
	e := c.eng
	el := vdom.NewElement(tag, e.doc.CreateElement(tag), e.nextUID())
	e.stats.Created++

	ic := c.child(el, hostIndex)
	saved := e.create
	e.create = true
	fn(ic)
	ic.finish()
	e.create = saved
	return el
}

// cloneElement deep-clones src's host node and mirrors its virtual subtree
// with fresh uids. Listeners are registered for every cloned element that
// has events. Other descendants keep unresolved handles when partial
// cloning is enabled.
func (e *Engine) cloneElement(src *vdom.Element) *vdom.Element {
	h := src.Host.MustGet().DeepClone()
	dst := src.ShallowClone(h, e.nextUID())
	e.listenAll(dst, h)
	restoreProperties(dst, func() host.Element { return h })
	e.cloneChildren(src, dst, func() host.Element { return h })
	return dst
}

func (e *Engine) cloneChildren(src, dst *vdom.Element, hostOf func() host.Element) {
	dst.Children = make([]*vdom.Node, 0, len(src.Children))
	pos := 0
	for _, n := range src.Children {
		switch n.Kind {
		case vdom.KindText:
			dst.Children = append(dst.Children, vdom.NewText(n.Text, nil))
			pos++
		case vdom.KindElement:
			dst.Children = append(dst.Children, vdom.NewElementNode(e.cloneDescendant(n.Elem, hostOf, pos)))
			pos++
		case vdom.KindConditional:
			if n.State != vdom.Visible {
				// The retained node of a hidden region is not in the host
				// subtree that was copied.
				dst.Children = append(dst.Children, vdom.NewConditional(vdom.NotRendered, placeholder(n.Elem.Name)))
				continue
			}
			dst.Children = append(dst.Children, vdom.NewConditional(vdom.Visible, e.cloneDescendant(n.Elem, hostOf, pos)))
			pos++
		default:
			vdom.Violate("E100", src, "%s region cannot be cloned", n.Kind)
		}
	}
}

func (e *Engine) cloneDescendant(src *vdom.Element, parentHost func() host.Element, pos int) *vdom.Element {
	dst := src.ShallowClone(nil, e.nextUID())
	resolve := func() host.Element {
		return dst.Host.Resolve(func() host.Element {
			h, ok := host.AsElement(parentHost().ChildNode(pos))
			if !ok {
				vdom.Violate("E103", dst, "cloned host child %d is not an element", pos)
			}
			return h
		})
	}
	if !e.partialClone || len(dst.Events) > 0 {
		e.listenAll(dst, resolve())
	}
	restoreProperties(dst, resolve)
	e.cloneChildren(src, dst, resolve)
	return dst
}

func (e *Engine) listenAll(el *vdom.Element, h host.Element) {
	for _, name := range el.Events {
		e.handler.Listen(h, el.UID, name)
	}
}

// restoreProperties writes the stored value and checked state onto a cloned
// host element. They are live properties that a host clone starts without,
// and the update pass that follows only writes what differs from the stored
// values.
func restoreProperties(el *vdom.Element, hostOf func() host.Element) {
	for _, a := range el.Attrs {
		switch {
		case a.Name == "value" && a.Value != "",
			a.Name == "checked" && a.Value == "true":
			hostOf().SetAttribute(a.Name, a.Value)
		}
	}
}

func placeholder(name string) *vdom.Element {
	return vdom.NewElement(name, nil, 0)
}
