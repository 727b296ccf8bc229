package memdom

import (
	"fmt"
	"strconv"

	"github.com/edom-dev/edom/pkg/host"
)

type attr struct {
	name  string
	value string
}

type listener struct {
	name string
	uid  uint64
	slot *host.DispatchSlot
}

// Element is an element node.
type Element struct {
	node
	tag       string
	attrs     []attr
	value     string
	checked   bool
	children  []host.Node
	listeners []listener
}

// IsText implements host.Node.
func (e *Element) IsText() bool { return false }

// Tag returns the element name.
func (e *Element) Tag() string { return e.tag }

// AppendChild implements host.Element.
func (e *Element) AppendChild(n host.Node) {
	c := asChild(n)
	e.attach(c, len(e.childrenAfterDetach(c)))
	e.doc.emit(Mutation{Op: OpAppendChild, Target: e.id, Child: c.base().id})
}

// PrependChild implements host.Element.
func (e *Element) PrependChild(n host.Node) {
	c := asChild(n)
	e.childrenAfterDetach(c)
	e.attach(c, 0)
	e.doc.emit(Mutation{Op: OpPrependChild, Target: e.id, Child: c.base().id})
}

// InsertBefore implements host.Element.
func (e *Element) InsertBefore(n, ref host.Node) {
	c := asChild(n)
	if ref == nil {
		e.attach(c, len(e.childrenAfterDetach(c)))
		e.doc.emit(Mutation{Op: OpInsertBefore, Target: e.id, Child: c.base().id})
		return
	}
	r := asChild(ref)
	e.childrenAfterDetach(c)
	e.attach(c, e.mustIndex(r))
	e.doc.emit(Mutation{Op: OpInsertBefore, Target: e.id, Child: c.base().id, Ref: r.base().id})
}

// InsertAfter implements host.Element.
func (e *Element) InsertAfter(n, ref host.Node) {
	c := asChild(n)
	r := asChild(ref)
	e.childrenAfterDetach(c)
	e.attach(c, e.mustIndex(r)+1)
	e.doc.emit(Mutation{Op: OpInsertAfter, Target: e.id, Child: c.base().id, Ref: r.base().id})
}

// RemoveChild implements host.Element.
func (e *Element) RemoveChild(n host.Node) {
	c := asChild(n)
	e.detachAt(e.mustIndex(c))
	e.doc.emit(Mutation{Op: OpRemoveChild, Target: e.id, Child: c.base().id})
}

// Remove implements host.Element.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	e.parent.detachAt(e.parent.mustIndex(e))
	e.doc.emit(Mutation{Op: OpRemove, Target: e.id})
}

// SetAttribute implements host.Element.
func (e *Element) SetAttribute(name, value string) {
	e.setAttr(name, value)
	e.doc.emit(Mutation{Op: OpSetAttribute, Target: e.id, Name: name, Value: value})
}

func (e *Element) setAttr(name, value string) {
	switch name {
	case "value":
		e.value = value
		return
	case "checked":
		e.checked = value == "true"
		return
	}
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs[i].value = value
			return
		}
	}
	e.attrs = append(e.attrs, attr{name: name, value: value})
}

// Attribute implements host.Element.
func (e *Element) Attribute(name string) string {
	switch name {
	case "value":
		return e.value
	case "checked":
		return strconv.FormatBool(e.checked)
	}
	for _, a := range e.attrs {
		if a.name == name {
			return a.value
		}
	}
	return ""
}

// SetTextContent implements host.Element.
func (e *Element) SetTextContent(s string) {
	t := e.setText(s)
	e.doc.emit(Mutation{Op: OpSetTextContent, Target: e.id, Child: t.id, Value: s})
}

func (e *Element) setText(s string) *Text {
	for _, n := range e.children {
		c := asChild(n)
		c.base().parent = nil
		e.doc.forget(c)
	}
	e.children = e.children[:0]
	t := e.doc.newText(s)
	e.attach(t, 0)
	return t
}

// AppendText implements host.Element.
func (e *Element) AppendText(t host.Text) {
	c := asChild(t)
	e.attach(c, len(e.childrenAfterDetach(c)))
	e.doc.emit(Mutation{Op: OpAppendText, Target: e.id, Child: c.base().id})
}

// ReplaceText implements host.Element.
func (e *Element) ReplaceText(newText, oldText host.Text) {
	nc, oc := asChild(newText), asChild(oldText)
	e.childrenAfterDetach(nc)
	i := e.mustIndex(oc)
	e.children[i] = nc
	oc.base().parent = nil
	e.doc.forget(oc)
	nc.base().parent = e
	e.doc.emit(Mutation{Op: OpReplaceText, Target: e.id, Child: nc.base().id, Ref: oc.base().id})
}

// DeepClone implements host.Element.
func (e *Element) DeepClone() host.Element {
	c := e.clone()
	e.doc.emit(Mutation{Op: OpClone, Target: e.id, Child: c.id})
	return c
}

func (e *Element) clone() *Element {
	c := e.doc.newElement(e.tag)
	c.attrs = append([]attr(nil), e.attrs...)
	for _, n := range e.children {
		switch n := n.(type) {
		case *Element:
			cc := n.clone()
			cc.parent = c
			c.children = append(c.children, cc)
		case *Text:
			t := e.doc.newText(n.data)
			t.parent = c
			c.children = append(c.children, t)
		}
	}
	return c
}

// ChildNodes implements host.Element.
func (e *Element) ChildNodes() []host.Node {
	return append([]host.Node(nil), e.children...)
}

// ChildNode implements host.Element.
func (e *Element) ChildNode(i int) host.Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Len returns the number of child nodes.
func (e *Element) Len() int {
	return len(e.children)
}

// Checked returns the checked property.
func (e *Element) Checked() bool {
	return e.checked
}

// Value returns the value property.
func (e *Element) Value() string {
	return e.value
}

// SetProperty changes "value" or "checked" the way user input does: no
// mutation is recorded.
func (e *Element) SetProperty(name, value string) {
	e.setAttr(name, value)
}

// String returns "<tag #id>".
func (e *Element) String() string {
	return fmt.Sprintf("<%s #%d>", e.tag, e.id)
}

// childrenAfterDetach removes c from its current parent and returns e's
// children.
func (e *Element) childrenAfterDetach(c child) []host.Node {
	if p := c.base().parent; p != nil {
		p.detachAt(p.mustIndex(c))
	}
	return e.children
}

func (e *Element) attach(c child, i int) {
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = c
	c.base().parent = e
}

func (e *Element) detachAt(i int) {
	c := asChild(e.children[i])
	copy(e.children[i:], e.children[i+1:])
	e.children[len(e.children)-1] = nil
	e.children = e.children[:len(e.children)-1]
	c.base().parent = nil
}

func (e *Element) indexOf(c child) int {
	for i, n := range e.children {
		if asChild(n).base() == c.base() {
			return i
		}
	}
	return -1
}

func (e *Element) mustIndex(c child) int {
	i := e.indexOf(c)
	if i < 0 {
		panic(fmt.Sprintf("memdom: node #%d is not a child of %s", c.base().id, e))
	}
	return i
}
