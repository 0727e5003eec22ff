// Package logging defines the structured logger used across the service.
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are key–value
// pairs:
//
//	log.Info(ctx, "server starting", "port", port)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
