package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	companyIDKey contextKey = "company_id"
	userIDKey    contextKey = "user_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID in the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithCompanyID stores the caller's company in the context
func WithCompanyID(ctx context.Context, companyID int64) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// WithUserID stores the caller's user in the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetCompanyID retrieves the company ID from context
func GetCompanyID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(companyIDKey).(int64)
	return id, ok
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// ContextFields returns the correlation fields carried by ctx: trace and
// span ids, request id, company id and user id
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if companyID, ok := GetCompanyID(ctx); ok {
		fields = append(fields, zap.Int64("company_id", companyID))
	}
	if userID, ok := GetUserID(ctx); ok {
		fields = append(fields, zap.Int64("user_id", userID))
	}
	return fields
}

// L returns the context logger enriched with the correlation fields.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(ContextFields(ctx)...)
}
