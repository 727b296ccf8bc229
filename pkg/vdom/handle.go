package vdom

import "github.com/edom-dev/edom/pkg/host"

// Handle is a single-assignment reference to an element's host node.
type Handle struct {
	el       host.Element
	resolved bool
}

// Get returns the host node if the handle is resolved.
func (h *Handle) Get() (host.Element, bool) {
	return h.el, h.resolved
}

// Resolved reports whether the handle has been filled.
func (h *Handle) Resolved() bool {
	return h.resolved
}

// Set fills the handle. Filling a resolved handle is a contract violation.
func (h *Handle) Set(el host.Element) {
	if h.resolved {
		Violate("E103", nil, "host handle assigned twice")
	}
	if el == nil {
		Violate("E103", nil, "host handle assigned nil")
	}
	h.el = el
	h.resolved = true
}

// Resolve returns the host node, computing it with fn on first use.
func (h *Handle) Resolve(fn func() host.Element) host.Element {
	if !h.resolved {
		h.Set(fn())
	}
	return h.el
}

// MustGet returns the host node or raises E103.
func (h *Handle) MustGet() host.Element {
	if !h.resolved {
		Violate("E103", nil, "host handle read before resolution")
	}
	return h.el
}
