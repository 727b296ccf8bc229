package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/server"
)

const defaultTracerName = "edom"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "edom").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeSessionID adds the session id to every span.
	// Enabled by default.
	IncludeSessionID bool

	// Filter determines which cycles to trace.
	// If nil, all cycles are traced.
	Filter func(c *server.Cycle) bool

	// AttributeExtractor adds custom attributes to every traced cycle.
	AttributeExtractor func(c *server.Cycle) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeSessionID enables or disables the session id attribute.
func WithIncludeSessionID(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeSessionID = include
	}
}

// WithCycleFilter sets a filter function for cycles.
func WithCycleFilter(filter func(c *server.Cycle) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *server.Cycle) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:       defaultTracerName,
		IncludeSessionID: true,
	}
}

// OpenTelemetry creates middleware that traces every cycle.
//
// Each span is named after the cycle ("edom.event click", "edom.update")
// and carries the session id, the event's listener uid and the number of
// host operations the cycle produced. Inner middleware reach it with
// trace.SpanFromContext.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) server.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(next server.CycleFunc) server.CycleFunc {
		return func(ctx context.Context, c *server.Cycle) error {
			if config.Filter != nil && !config.Filter(c) {
				return next(ctx, c)
			}

			attrs := []attribute.KeyValue{
				attribute.String("edom.cycle.kind", string(c.Kind)),
			}
			if config.IncludeSessionID {
				attrs = append(attrs, attribute.String("edom.session_id", c.SessionID))
			}
			if ev := c.Event; ev != nil {
				attrs = append(attrs,
					attribute.String("edom.event.name", ev.Name),
					attribute.Int64("edom.event.uid", int64(ev.UID)),
					attribute.Int64("edom.event.seq", int64(ev.Seq)),
				)
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(c)...)
			}

			spanCtx, span := config.tracer.Start(ctx, spanName(c),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next(spanCtx, c)

			if err != nil {
				span.RecordError(err)
				if code := errs.Code(err); code != "" {
					span.SetAttributes(attribute.String("edom.error.code", code))
				}
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.SetAttributes(
				attribute.Int("edom.ops", c.Ops),
				attribute.Int("edom.frame_bytes", c.Bytes),
			)
			return err
		}
	}
}

func spanName(c *server.Cycle) string {
	if c.Event != nil {
		return fmt.Sprintf("edom.%s %s", c.Kind, c.Event.Name)
	}
	return "edom." + string(c.Kind)
}
