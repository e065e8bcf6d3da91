package notification

import (
	"context"

	"go.uber.org/zap"

	procurementapp "github.com/procura/backend/internal/application/procurement"
)

// LogDispatcher writes notifications to the structured log instead of an
// external channel. It stands in until a real mail or webhook transport is
// configured; the engine only sees the NotificationDispatcher interface.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a new log-backed dispatcher
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the notification at info level
func (d *LogDispatcher) Dispatch(ctx context.Context, n procurementapp.Notification) error {
	fields := []zap.Field{
		zap.String("topic", n.Topic),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	}
	for k, v := range n.Meta {
		fields = append(fields, zap.String(k, v))
	}
	d.logger.Info("notification dispatched", fields...)
	return nil
}
