package gateway

import (
	"context"

	"go.uber.org/zap"

	"billdue-backend-go/internal/models"
)

// Notifier is the delivery sink a fired notification is handed to.
type Notifier interface {
	Deliver(ctx context.Context, instance models.NotificationInstance) error
}

// LogNotifier writes fired notifications to the structured log. It is
// the default sink when no webhook target is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Deliver logs the notification and always succeeds.
func (n *LogNotifier) Deliver(_ context.Context, instance models.NotificationInstance) error {
	n.logger.Info("notification_fired",
		zap.Int("id", instance.ID),
		zap.String("billId", instance.BillID),
		zap.String("kind", string(instance.Kind)),
		zap.String("title", instance.Title),
		zap.String("body", instance.Body),
	)
	return nil
}
