package vdom

// Walk visits e and every element below it in render order. Hidden and
// not-rendered conditional elements are visited only if withHidden is set.
// Returning false from fn stops the walk.
func Walk(e *Element, withHidden bool, fn func(*Element) bool) bool {
	if e == nil {
		return true
	}
	if !fn(e) {
		return false
	}
	for _, child := range e.Children {
		switch child.Kind {
		case KindElement:
			if !Walk(child.Elem, withHidden, fn) {
				return false
			}
		case KindConditional:
			if child.State == Visible || (withHidden && child.State == Hidden) {
				if !Walk(child.Elem, withHidden, fn) {
					return false
				}
			}
		case KindForEach:
			for _, k := range child.List {
				if !Walk(k.Elem, withHidden, fn) {
					return false
				}
			}
		}
	}
	return true
}

// FindByUID returns the element with the given uid, or nil.
func FindByUID(root *Element, uid uint64) *Element {
	var found *Element
	Walk(root, true, func(e *Element) bool {
		if e.UID == uid {
			found = e
			return false
		}
		return true
	})
	return found
}

// CountInteractive returns the number of rendered elements that registered
// at least one event.
func CountInteractive(root *Element) int {
	n := 0
	Walk(root, false, func(e *Element) bool {
		if len(e.Events) > 0 {
			n++
		}
		return true
	})
	return n
}

// UIDs returns the uids of rendered elements in render order.
func UIDs(root *Element) []uint64 {
	var uids []uint64
	Walk(root, false, func(e *Element) bool {
		uids = append(uids, e.UID)
		return true
	})
	return uids
}

// TextContent concatenates the text of rendered descendants in order.
func TextContent(e *Element) string {
	var out []byte
	var walk func(*Element)
	walk = func(e *Element) {
		for _, child := range e.Children {
			switch child.Kind {
			case KindText:
				out = append(out, child.Text...)
			case KindElement:
				walk(child.Elem)
			case KindConditional:
				if child.State == Visible {
					walk(child.Elem)
				}
			case KindForEach:
				for _, k := range child.List {
					walk(k.Elem)
				}
			}
		}
	}
	walk(e)
	return string(out)
}
