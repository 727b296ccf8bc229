package middleware

import (
	"context"
	"log/slog"
	"time"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/server"
)

// Logging creates middleware that logs cycles to logger. Cycles slower
// than slow are logged as warnings; zero disables the check.
func Logging(logger *slog.Logger, slow time.Duration) server.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next server.CycleFunc) server.CycleFunc {
		return func(ctx context.Context, c *server.Cycle) error {
			start := time.Now()
			err := next(ctx, c)
			elapsed := time.Since(start)

			attrs := []any{
				"session_id", c.SessionID,
				"kind", c.Kind,
				"ops", c.Ops,
				"bytes", c.Bytes,
				"duration", elapsed,
			}
			if c.Event != nil {
				attrs = append(attrs, "event", c.Event.Name, "uid", c.Event.UID)
			}

			switch {
			case err != nil:
				logger.WarnContext(ctx, "cycle failed", append(attrs, "code", errs.Code(err), "error", err)...)
			case slow > 0 && elapsed > slow:
				logger.WarnContext(ctx, "slow cycle", attrs...)
			default:
				logger.DebugContext(ctx, "cycle", attrs...)
			}
			return err
		}
	}
}
