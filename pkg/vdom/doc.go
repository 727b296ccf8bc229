// Package vdom provides the virtual tree edom keeps between render passes.
//
// The tree records what the host currently shows: element names, ordered
// attributes, children, registered event names and each element's uid. It is
// built by the first render pass and mutated in place by every later pass;
// package edom owns all traversal.
//
// # Node Kinds
//
// Node is a tagged union over four kinds:
//
//   - KindText: a text child, optionally holding its dedicated host text node.
//   - KindElement: a child element.
//   - KindForEach: a keyed list region, ordered as currently rendered.
//   - KindConditional: an optionally rendered element with a CondState.
//
// # Host Handles
//
// Every Element has a Handle to its host node. Handles created alongside a
// host node are resolved immediately; handles of elements produced by list
// cloning start unresolved and are filled on first access from the parent's
// host children.
//
// # Contract Violations
//
// Structural mismatches between passes are programming errors in the render
// function. They are raised with Violate, which panics with a *Violation;
// package edom recovers it at the render-pass boundary.
package vdom
