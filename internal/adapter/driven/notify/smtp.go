// Package notify holds the pluggable delivery backends for C11:
// SMTP email and Twilio WhatsApp. Neither library exists anywhere in
// the example pack, so both are built on the standard library
// (net/smtp, net/http) rather than on a third-party SDK — see
// DESIGN.md for the per-dependency justification.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// SMTPConfig configures the email backend. Host empty means
// unconfigured and Configured reports false; SendEmail itself does not
// check this, and CompositeNotifier is what skips email delivery for
// an unconfigured backend.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPNotifier sends alert emails through net/smtp.SendMail, which
// upgrades to STARTTLS whenever the server offers it; PLAIN auth is
// used only when both User and Pass are set.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier builds an SMTPNotifier.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Configured reports whether an SMTP host was supplied.
func (n *SMTPNotifier) Configured() bool {
	return n.cfg.Host != ""
}

// SendEmail renders and sends alert as a plain-text email to "to".
func (n *SMTPNotifier) SendEmail(ctx context.Context, to string, alert port.NotificationAlert) error {
	subject := fmt.Sprintf("[%s] Alert: %s", alert.Severity, alert.RuleName)
	var body bytes.Buffer
	fmt.Fprintf(&body, "Alert Notification\n\n")
	fmt.Fprintf(&body, "Rule: %s\n", alert.RuleName)
	fmt.Fprintf(&body, "Device: %s (%s)\n", alert.DeviceName, alert.DeviceKey)
	fmt.Fprintf(&body, "Severity: %s\n", alert.Severity)
	fmt.Fprintf(&body, "Triggered: %s\n\n", alert.TriggeredAt)
	fmt.Fprintf(&body, "Message:\n%s\n\nTelemetry Snapshot:\n%v\n", alert.Message, alert.TelemetrySnapshot)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.cfg.From, to, subject, body.String())

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.User != "" && n.cfg.Pass != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	}
	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg))
}

// SendWhatsApp is not implemented by the SMTP backend; callers compose
// it with a WhatsApp-capable Notifier (see twilio.go) rather than
// expecting one type to do both.
func (n *SMTPNotifier) SendWhatsApp(ctx context.Context, to string, alert port.NotificationAlert) error {
	return fmt.Errorf("smtp notifier does not support whatsapp delivery")
}
