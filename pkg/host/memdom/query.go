package memdom

import (
	"strings"

	"github.com/edom-dev/edom/pkg/render"
)

// TextContent concatenates all descendant text in document order.
func (e *Element) TextContent() string {
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *Element) writeText(b *strings.Builder) {
	for _, n := range e.children {
		switch n := n.(type) {
		case *Text:
			b.WriteString(n.data)
		case *Element:
			n.writeText(b)
		}
	}
}

// Children returns the element children of e, skipping text nodes.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, n := range e.children {
		if c, ok := n.(*Element); ok {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant (or e itself) matching fn in pre-order.
func (e *Element) Find(fn func(*Element) bool) *Element {
	if fn(e) {
		return e
	}
	for _, c := range e.Children() {
		if found := c.Find(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns all descendants (and e itself) matching fn in pre-order.
func (e *Element) FindAll(fn func(*Element) bool) []*Element {
	var out []*Element
	if fn(e) {
		out = append(out, e)
	}
	for _, c := range e.Children() {
		out = append(out, c.FindAll(fn)...)
	}
	return out
}

// ByTag matches elements with the given name.
func ByTag(tag string) func(*Element) bool {
	return func(e *Element) bool { return e.tag == tag }
}

// ByText matches elements whose text content equals s.
func ByText(s string) func(*Element) bool {
	return func(e *Element) bool { return e.TextContent() == s }
}

// ByAttr matches elements whose attribute name equals value.
func ByAttr(name, value string) func(*Element) bool {
	return func(e *Element) bool { return e.Attribute(name) == value }
}

// OuterHTML serializes e and its subtree. Properties are not serialized.
func (e *Element) OuterHTML() string {
	var b strings.Builder
	e.writeHTML(&b)
	return b.String()
}

func (e *Element) writeHTML(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.tag)
	for _, a := range e.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(render.EscapeAttr(a.value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if render.IsVoidElement(e.tag) {
		return
	}
	for _, n := range e.children {
		switch n := n.(type) {
		case *Text:
			b.WriteString(render.EscapeText(n.data))
		case *Element:
			n.writeHTML(b)
		}
	}
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}
