package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	loggerKey     contextKey = "logger"
	requestIDKey  contextKey = "request_id"
	operatorIDKey contextKey = "operator_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds the request ID to the context and returns an enriched
// logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithOperatorID adds the acting operator's ID to the context and returns an
// enriched logger
func WithOperatorID(ctx context.Context, logger *zap.Logger, operatorID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, operatorIDKey, operatorID)
	enriched := logger.With(zap.String("operator_id", operatorID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetOperatorID retrieves the operator ID from context
func GetOperatorID(ctx context.Context) string {
	if operatorID, ok := ctx.Value(operatorIDKey).(string); ok {
		return operatorID
	}
	return ""
}
