package log

import (
	"context"
	"log/slog"
	"net/http"

	"brankas/internal/core"
)

// StructuredLogger writes the fixed-shape records shared by the HTTP layer:
// request start/end, committed transactions and request failures. When the
// context carries a request logger it is preferred, so records keep the
// request ID.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = Discard()
	}
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) from(ctx context.Context, component string) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l.WithComponent(component)
	}
	return sl.logger.WithComponent(component)
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	sl.from(ctx, ComponentHTTP).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	l := sl.from(ctx, ComponentHTTP)
	l.Logger.Log(ctx, level, "HTTP request completed", l.attrs(fields.ToSlice())...)
}

// LogTransaction records a committed transaction mutation; op is one of
// OpCreate, OpUpdate or OpDelete.
func (sl *StructuredLogger) LogTransaction(ctx context.Context, op, userID string, tx core.Transaction) {
	fields := NewFields().
		WithUser(userID).
		WithTransaction(tx.ID, string(tx.Type()), tx.Amount.StringFixed(2), tx.Category, tx.Subcategory, tx.AccountID, tx.DestinationID).
		WithOperation(op)
	sl.from(ctx, ComponentTransaction).InfoContext(ctx, "Transaction "+op+"d", fields.ToSlice()...)
}

// LogRequestError records an unexpected failure behind a generic 500.
func (sl *StructuredLogger) LogRequestError(ctx context.Context, r *http.Request, userID string, err error) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, "", "").
		WithUser(userID).
		WithError(err)
	sl.from(ctx, ComponentHTTP).ErrorContext(ctx, "Request failed", fields.ToSlice()...)
}
