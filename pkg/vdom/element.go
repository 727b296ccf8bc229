package vdom

import "github.com/edom-dev/edom/pkg/host"

// Element is a named virtual node.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Host     Handle
	Events   []string
	UID      uint64
}

// NewElement returns an element. A nil h leaves the handle unresolved.
func NewElement(name string, h host.Element, uid uint64) *Element {
	e := &Element{Name: name, UID: uid}
	if h != nil {
		e.Host.Set(h)
	}
	return e
}

// ShallowClone copies the name, attributes and event names of e into a new
// element with the given uid and handle. Children are not copied.
func (e *Element) ShallowClone(h host.Element, uid uint64) *Element {
	c := NewElement(e.Name, h, uid)
	c.Attrs = append([]Attr(nil), e.Attrs...)
	c.Events = append([]string(nil), e.Events...)
	return c
}

// Clonable reports whether the host subtree of e can be reused by cloning.
// Subtrees containing list regions are rebuilt instead.
func (e *Element) Clonable() bool {
	for _, child := range e.Children {
		switch child.Kind {
		case KindForEach:
			return false
		case KindElement:
			if !child.Elem.Clonable() {
				return false
			}
		case KindConditional:
			if child.State == Visible && !child.Elem.Clonable() {
				return false
			}
		}
	}
	return true
}

// Attr returns the stored value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasEvent reports whether e registered the named event.
func (e *Element) HasEvent(name string) bool {
	for _, ev := range e.Events {
		if ev == name {
			return true
		}
	}
	return false
}
