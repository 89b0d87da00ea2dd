// Package notify implements C11, the Notification Dispatcher: fans an
// Alert out to every active user of its tenant, across whichever
// channels the firing rule enabled, isolating each delivery attempt
// from every other.
package notify

import (
	"context"
	"log/slog"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
	"github.com/orchestrix/telemetry-core/pkg/observability"
)

// Dispatcher implements port.NotificationDispatcher.
type Dispatcher struct {
	alerts   port.AlertRepository
	rules    port.RuleRepository
	devices  port.DeviceRepository
	users    port.UserRepository
	notifier port.Notifier
}

// New builds a Dispatcher.
func New(alerts port.AlertRepository, rules port.RuleRepository, devices port.DeviceRepository, users port.UserRepository, notifier port.Notifier) *Dispatcher {
	return &Dispatcher{alerts: alerts, rules: rules, devices: devices, users: users, notifier: notifier}
}

// Dispatch loads the Alert and its denormalized Rule/Device context,
// then attempts delivery to every active user of the tenant across
// every enabled channel. Per-channel and per-user failures are
// isolated: one failed send never blocks another. notification_sent
// is set unconditionally once every attempt has been made, per §4.11.
func (d *Dispatcher) Dispatch(ctx context.Context, task port.NotifyTask) error {
	alert, err := d.alerts.FindByID(ctx, task.AlertID)
	if err != nil {
		slog.Error("notification.alert_load_error", "alert_id", task.AlertID, "error", err)
		return err
	}

	rule, err := d.rules.FindByID(ctx, alert.RuleID)
	if err != nil {
		slog.Error("notification.rule_load_error", "alert_id", task.AlertID, "rule_id", alert.RuleID, "error", err)
		return err
	}

	device, err := d.devices.FindByID(ctx, alert.DeviceID)
	if err != nil {
		slog.Error("notification.device_load_error", "alert_id", task.AlertID, "device_id", alert.DeviceID, "error", err)
		return err
	}

	users, err := d.users.FindActiveByTenant(ctx, alert.TenantID)
	if err != nil {
		slog.Error("notification.users_load_error", "tenant_id", alert.TenantID, "error", err)
		return err
	}

	body := port.NotificationAlert{
		ID:                alert.ID,
		RuleName:          rule.Name,
		DeviceName:        device.Name,
		DeviceKey:         device.DeviceKey,
		Severity:          alert.Severity,
		Message:           alert.Message,
		TriggeredAt:       alert.TriggeredAt,
		TelemetrySnapshot: alert.TelemetrySnapshot,
	}

	for _, user := range users {
		if task.Channels.Email {
			d.sendEmail(ctx, user, body)
		}
		if task.Channels.WhatsApp {
			d.sendWhatsApp(ctx, user, body)
		}
	}

	if err := d.alerts.MarkNotificationSent(ctx, alert.ID); err != nil {
		slog.Error("notification.mark_sent_error", "alert_id", alert.ID, "error", err)
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, user *domain.User, alert port.NotificationAlert) {
	metrics := observability.GetMetrics()
	if !user.CanReceiveEmail() {
		slog.Debug("notification.email_skipped_no_address", "alert_id", alert.ID, "user_id", user.ID)
		return
	}
	if err := d.notifier.SendEmail(ctx, user.Email, alert); err != nil {
		slog.Error("notification.email_failed", "alert_id", alert.ID, "to", maskEmail(user.Email), "error", err)
		if metrics != nil {
			metrics.NotificationsSentTotal.WithLabelValues("email", "failed").Inc()
		}
		return
	}
	slog.Info("notification.email_sent", "alert_id", alert.ID, "to", maskEmail(user.Email))
	if metrics != nil {
		metrics.NotificationsSentTotal.WithLabelValues("email", "sent").Inc()
	}
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, user *domain.User, alert port.NotificationAlert) {
	metrics := observability.GetMetrics()
	if !user.CanReceiveWhatsApp() {
		slog.Debug("notification.whatsapp_skipped_no_address", "alert_id", alert.ID, "user_id", user.ID)
		return
	}
	number := *user.WhatsAppNumber
	if err := d.notifier.SendWhatsApp(ctx, number, alert); err != nil {
		slog.Error("notification.whatsapp_failed", "alert_id", alert.ID, "to", maskPhone(number), "error", err)
		if metrics != nil {
			metrics.NotificationsSentTotal.WithLabelValues("whatsapp", "failed").Inc()
		}
		return
	}
	slog.Info("notification.whatsapp_sent", "alert_id", alert.ID, "to", maskPhone(number))
	if metrics != nil {
		metrics.NotificationsSentTotal.WithLabelValues("whatsapp", "sent").Inc()
	}
}
