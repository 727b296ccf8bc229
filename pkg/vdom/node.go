package vdom

import "github.com/edom-dev/edom/pkg/host"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindText        Kind = iota // Text child
	KindElement                 // Child element
	KindForEach                 // Keyed list region
	KindConditional             // Optionally rendered element
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindForEach:
		return "ForEach"
	case KindConditional:
		return "Conditional"
	default:
		return "Unknown"
	}
}

// CondState is the state of a conditional region.
type CondState uint8

const (
	NotRendered CondState = iota // no element materialized yet
	Hidden                       // element and host node retained off-tree
	Visible                      // host node attached
)

// String returns the string representation of the CondState.
func (s CondState) String() string {
	switch s {
	case NotRendered:
		return "NotRendered"
	case Hidden:
		return "Hidden"
	case Visible:
		return "Visible"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute.
type Attr struct {
	Name  string
	Value string
}

// Keyed is one slot of a ForEach region.
type Keyed struct {
	Key  uint64
	Elem *Element
}

// Node is a child of an Element.
type Node struct {
	Kind Kind

	// Text and TextHost are set for KindText. TextHost is nil when the text
	// was produced by SetTextContent or copied by a clone.
	Text     string
	TextHost host.Text

	// Elem is set for KindElement and KindConditional.
	Elem *Element

	// List is set for KindForEach.
	List []Keyed

	// State is set for KindConditional.
	State CondState
}

// NewText returns a text node.
func NewText(s string, h host.Text) *Node {
	return &Node{Kind: KindText, Text: s, TextHost: h}
}

// NewElementNode returns an element node.
func NewElementNode(e *Element) *Node {
	return &Node{Kind: KindElement, Elem: e}
}

// NewForEach returns an empty list region.
func NewForEach() *Node {
	return &Node{Kind: KindForEach}
}

// NewConditional returns a conditional region holding e.
func NewConditional(state CondState, e *Element) *Node {
	return &Node{Kind: KindConditional, State: state, Elem: e}
}

// SetState sets the state of a conditional region.
func (n *Node) SetState(s CondState) {
	if n.Kind != KindConditional {
		Violate("E104", nil, "node is %s", n.Kind)
	}
	n.State = s
}

// HostContribution returns how many host siblings the node currently
// occupies in its parent.
func (n *Node) HostContribution() int {
	switch n.Kind {
	case KindForEach:
		return len(n.List)
	case KindConditional:
		if n.State == Visible {
			return 1
		}
		return 0
	default:
		return 1
	}
}
