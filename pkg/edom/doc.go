// Package edom is an immediate-mode UI engine.
//
// Application code describes the whole user interface on every pass by
// calling methods on a Cursor. The engine compares each call against the
// tree recorded on the previous pass and touches the host only where the
// description changed. Building the tree and diffing it are the same
// traversal; there is no second snapshot.
//
// # Mounting
//
//	doc := memdom.NewDocument()
//	root := doc.NewElement("div")
//	eng, err := edom.Mount(memdom.NewBackend(doc), root, func(c *edom.Cursor) {
//	    c.H1().Text("Counter")
//	    c.Button("+1").Click(func() { count++ })
//	    c.Span().Text(strconv.Itoa(count))
//	})
//
// Mount runs the create pass and installs the engine's dispatcher in the
// backend. Each fired event then runs two passes: an effect pass in which the
// handler registered on the firing element runs, and a render pass that
// reflects the state the handler changed.
//
// # Shape
//
// Outside of ForEach and RenderIf regions the sequence of calls must be the
// same on every pass: same element names, same attribute names in the same
// order, same events, same text positions. A mismatch is a contract
// violation. The pass stops, the violation is returned as an
// *errors.Error with one of the codes E100 to E108, and the engine refuses
// further work with ErrAborted.
//
// # Lists
//
// ForEach renders one element per item and reconciles by key:
//
//	edom.ForEach(c.Ul(), todos, func(t *Todo) int { return t.ID }, "li",
//	    func(t *Todo, c *edom.Cursor) {
//	        c.Text(t.Title)
//	    })
//
// New items are produced by cloning the host subtree of the previously
// processed item and patching it, unless WithListCloning(false) is given.
//
// # Concurrency
//
// An engine belongs to one goroutine. Passes are synchronous.
package edom
