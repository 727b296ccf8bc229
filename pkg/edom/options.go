package edom

import "log/slog"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Passes log at Debug, violations at Error.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithListCloning controls whether new list items are produced by cloning
// the host subtree of the previous item. Enabled by default.
func WithListCloning(on bool) Option {
	return func(e *Engine) {
		e.cloneForEach = on
	}
}

// WithPartialClone controls whether cloned subtrees correlate their
// descendants with the cloned host nodes lazily. When disabled every host
// descendant is looked up during the clone. Enabled by default.
func WithPartialClone(on bool) Option {
	return func(e *Engine) {
		e.partialClone = on
	}
}
