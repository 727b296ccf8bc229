// Package middleware provides cycle middleware for edom servers.
//
// Every function here returns a server.Middleware, which wraps each cycle
// (one client event or one server-side update) of every session.
//
// # OpenTelemetry
//
// OpenTelemetry starts a span per cycle carrying the session id, the event
// name and listener uid, and the number of host operations produced.
//
//	srv := server.New(app, nil,
//	    server.WithMiddleware(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	        middleware.WithCycleFilter(func(c *server.Cycle) bool {
//	            return c.Kind == server.CycleEvent
//	        }),
//	    )),
//	)
//
// # Prometheus
//
// Prometheus counts cycles and observes their duration, the host
// operations they produce and the size of the ops frame sent:
//
//	reg := prometheus.NewRegistry()
//	srv := server.New(app, nil,
//	    server.WithRegistry(reg),
//	    server.WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg))),
//	)
//
// The server already exposes reg on /metrics.
//
// # Logging
//
// Logging writes one debug record per cycle and a warning for each failed
// or slow one.
//
// Middleware run in the order given; put OpenTelemetry first so the other
// middleware run inside its span.
package middleware
