package notify

import (
	"context"
	"log/slog"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// CompositeNotifier implements port.Notifier by routing to the SMTP
// and Twilio backends, skipping gracefully when either is
// unconfigured rather than erroring — per §4.11's "delivery backends
// are pluggable; when unconfigured, the dispatcher logs and skips
// gracefully."
type CompositeNotifier struct {
	Email    *SMTPNotifier
	WhatsApp *TwilioNotifier
}

// SendEmail delegates to the SMTP backend, or skips if unconfigured.
func (c *CompositeNotifier) SendEmail(ctx context.Context, to string, alert port.NotificationAlert) error {
	if c.Email == nil || !c.Email.Configured() {
		slog.Debug("notification.email_skipped_not_configured", "alert_id", alert.ID)
		return nil
	}
	return c.Email.SendEmail(ctx, to, alert)
}

// SendWhatsApp delegates to the Twilio backend, or skips if
// unconfigured.
func (c *CompositeNotifier) SendWhatsApp(ctx context.Context, to string, alert port.NotificationAlert) error {
	if c.WhatsApp == nil || !c.WhatsApp.Configured() {
		slog.Debug("notification.whatsapp_skipped_not_configured", "alert_id", alert.ID)
		return nil
	}
	return c.WhatsApp.SendWhatsApp(ctx, to, alert)
}
