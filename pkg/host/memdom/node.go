package memdom

import (
	"fmt"

	"github.com/edom-dev/edom/pkg/host"
)

type node struct {
	doc    *Document
	id     uint64
	parent *Element
}

// ID returns the node id.
func (n *node) ID() uint64 { return n.id }

// Parent returns the parent element, or nil when detached.
func (n *node) Parent() *Element { return n.parent }

func (n *node) base() *node { return n }

type child interface {
	host.Node
	base() *node
}

// Text is a text node.
type Text struct {
	node
	data string
}

// IsText implements host.Node.
func (t *Text) IsText() bool { return true }

// Data implements host.Text.
func (t *Text) Data() string { return t.data }

func asChild(n host.Node) child {
	c, ok := n.(child)
	if !ok {
		panic(fmt.Sprintf("memdom: foreign node %T", n))
	}
	return c
}

// ID returns the id of a memdom node, or 0 for nil and foreign nodes.
func ID(n host.Node) uint64 {
	if c, ok := n.(child); ok {
		return c.base().id
	}
	return 0
}

// ParentOf returns the parent element of a memdom node, or nil when the
// node is detached or foreign.
func ParentOf(n host.Node) *Element {
	if c, ok := n.(child); ok {
		return c.base().parent
	}
	return nil
}
