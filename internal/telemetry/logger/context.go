package logger

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	documentIDKey
)

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithDocumentID returns a context tagged with a document id; L adds it
// to every record.
func WithDocumentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, documentIDKey, id)
}

// DocumentID returns the document id carried by ctx, if any.
func DocumentID(ctx context.Context) string {
	id, _ := ctx.Value(documentIDKey).(string)
	return id
}

// L returns the logger carried by ctx, or slog.Default, enriched with
// the document id when one is set.
func L(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok {
		l = slog.Default()
	}
	if id := DocumentID(ctx); id != "" {
		l = l.With("document_id", id)
	}
	return l
}
