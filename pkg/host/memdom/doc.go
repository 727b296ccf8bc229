// Package memdom is an in-memory retained host for edom.
//
// It behaves like a small DOM: elements own ordered children, moving a node
// detaches it from its previous parent, DeepClone copies a subtree without
// listeners, and "value"/"checked" are live properties. Every mutation is
// counted and can be observed, which makes memdom the host used by tests and
// the server-side mirror used by package remote.
//
// Node ids are assigned from a per-document counter in creation order;
// DeepClone assigns ids to the copied subtree in pre-order, so a peer that
// replays the same mutations derives the same ids.
package memdom
