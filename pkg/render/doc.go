// Package render writes virtual trees as static HTML.
//
// Output follows the host structure the engine maintains: list regions
// render their slots in current order, visible conditional regions render
// their element, and hidden or not-rendered regions render nothing. The
// result is what a DOM-like backend holds after the same pass, which makes
// it suitable for snapshots and for comparing a remote mirror against the
// engine's own view.
//
//	html := render.Element(root)
//
// Pages for the WebSocket server are rendered with RenderPage, or with a
// StreamingRenderer when the head should reach the browser early.
//
// Text is escaped with EscapeText and attribute values with EscapeAttr.
package render
