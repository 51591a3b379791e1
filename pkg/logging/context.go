package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{ name string }

var (
	loggerKey = ctxKey{"logger"}
	runIDKey  = ctxKey{"run_id"}
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// WithRunID tags the context logger with the alignment run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withStr(context.WithValue(ctx, runIDKey, runID), "run_id", runID)
}

// RunID returns the run id set by WithRunID.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithNamespace tags the context logger with a dataset namespace.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return withStr(ctx, "namespace", namespace)
}

// WithStrategy tags the context logger with an alignment strategy.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return withStr(ctx, "strategy", strategy)
}

func withStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}
