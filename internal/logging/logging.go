// Package logging configures the process logger and carries request
// correlation ids through contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type correlationKey struct{}

// WithCorrelationID returns ctx tagged with id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// New builds the process logger: text to stdout and JSON to stderr, both at
// level. Records logged with a context carry its correlation id.
func New(stdout, stderr io.Writer, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(contextHandler{slog.NewMultiHandler(
		slog.NewTextHandler(stdout, opts),
		slog.NewJSONHandler(stderr, opts),
	)})
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
