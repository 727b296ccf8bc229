package host

// Node is the generic view of a host node, used for position-based lookups.
// Concrete nodes also implement Element or Text.
type Node interface {
	// IsText reports whether the node is a text node.
	IsText() bool
}

// Text is a host text node.
type Text interface {
	Node
	Data() string
}

// Element is a host element node.
type Element interface {
	Node

	AppendChild(child Node)
	PrependChild(child Node)
	// InsertBefore inserts child before ref; a nil ref appends.
	InsertBefore(child, ref Node)
	// InsertAfter inserts child immediately after ref.
	InsertAfter(child, ref Node)
	RemoveChild(child Node)
	// Remove detaches the element from its parent, if any.
	Remove()

	// SetAttribute sets a named attribute. "value" and "checked" set the
	// live properties of editable controls.
	SetAttribute(name, value string)
	Attribute(name string) string

	// SetTextContent replaces all children with a single text node.
	SetTextContent(s string)
	AppendText(t Text)
	ReplaceText(newText, oldText Text)

	// DeepClone copies the element and its descendants. Listeners and the
	// value and checked properties are not copied.
	DeepClone() Element
	ChildNodes() []Node
	// ChildNode returns the i-th child node, or nil.
	ChildNode(i int) Node
}

// Document creates host nodes.
type Document interface {
	CreateElement(name string) Element
	CreateText(s string) Text
	// Log writes a diagnostic line.
	Log(msg string, detail ...string)
}

// Releaser is implemented by documents that index nodes by id. Release
// tells the document that el, its descendants and any listeners on them
// will not be used again. el must already be detached.
type Releaser interface {
	Release(el Element)
}

// Event is a fired host event.
type Event interface {
	PreventDefault()
}

// EventHandler binds host listeners that report through a DispatchSlot.
type EventHandler interface {
	// Listen registers a listener for name on el that reports uid.
	Listen(el Element, uid uint64, name string)
}

// Backend constructs the document and event handler for one engine.
type Backend interface {
	NewDocument() Document
	NewEventHandler(slot *DispatchSlot) EventHandler
}

// AsElement returns n as an Element if it is one.
func AsElement(n Node) (Element, bool) {
	if n == nil || n.IsText() {
		return nil, false
	}
	el, ok := n.(Element)
	return el, ok
}

// AsText returns n as a Text if it is one.
func AsText(n Node) (Text, bool) {
	if n == nil || !n.IsText() {
		return nil, false
	}
	t, ok := n.(Text)
	return t, ok
}
