package gateway

import (
	"context"
	"fmt"

	dwh "github.com/nat-echlin/dwhooks"
	"go.uber.org/zap"

	"billdue-backend-go/internal/models"
)

// Embed colours per notification kind.
const (
	colourBlue   = 255      // main
	colourOrange = 16753920 // catch-up
	colourYellow = 16776960 // recurring reminder
	colourGreen  = 65280    // paid confirmation
)

// WebhookNotifier delivers fired notifications to a Discord webhook.
type WebhookNotifier struct {
	url      string
	username string
	logger   *zap.Logger
}

// NewWebhookNotifier creates a WebhookNotifier posting to the given
// webhook URL under the given display name.
func NewWebhookNotifier(url, username string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{url: url, username: username, logger: logger}
}

// Deliver posts the notification as an embed.
func (n *WebhookNotifier) Deliver(_ context.Context, instance models.NotificationInstance) error {
	emb := dwh.NewEmbed()
	emb.SetTitle(instance.Title)
	emb.SetDescription(instance.Body)
	emb.SetColour(colourFor(instance.Kind))

	msg := dwh.NewMessage("")
	msg.SetUsername(n.username)
	msg.AddEmbed(emb)

	status, err := dwh.NewWebhook(n.url).Send(msg)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("webhook delivery failed with status %d", status)
	}

	n.logger.Debug("notification_delivered",
		zap.Int("id", instance.ID),
		zap.String("kind", string(instance.Kind)),
	)
	return nil
}

func colourFor(kind models.NotificationKind) int {
	switch kind {
	case models.KindCatchUp:
		return colourOrange
	case models.KindRecurringReminder:
		return colourYellow
	case models.KindPaidConfirmation:
		return colourGreen
	default:
		return colourBlue
	}
}
