// Package server serves edom applications to browsers.
//
// Every page load mounts a fresh engine on a remote.Backend and responds
// with the rendered markup. The embedded client script then opens a
// WebSocket, names its session in the handshake and receives the ops frame
// of the create pass, which it replays to build a live copy of the tree.
// From then on each client event runs one cycle on the session's event
// loop: the event is dispatched to the engine and the resulting host
// operations go back as one ops frame.
//
// # Routes
//
//	GET  /                        new session, server-rendered page
//	GET  /ws                      WebSocket endpoint
//	GET  /_edom/client.js         browser client
//	GET  /healthz                 liveness and session count
//	GET  /metrics                 Prometheus metrics
//	POST /sessions/{id}/snapshot  store the session's current markup
//	GET  /snapshots/{id}          serve a stored snapshot
//
// The snapshot routes exist only when a store is configured with
// WithSnapshots.
//
// # Cycles
//
// Middleware wraps every cycle; pkg/middleware provides Prometheus,
// OpenTelemetry and slog implementations.
//
//	srv := server.New(app, nil,
//	    server.WithMiddleware(middleware.OpenTelemetry()),
//	)
//
// A session whose engine aborts is sent a fatal error frame and closed.
// Rejected events (unknown listener, malformed payload) are reported
// without closing the session.
package server
