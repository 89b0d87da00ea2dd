package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// TwilioConfig configures the WhatsApp backend over Twilio's REST
// API. AccountSID or AuthToken empty means unconfigured and Configured
// reports false; SendWhatsApp itself does not check this, and
// CompositeNotifier is what skips WhatsApp delivery for an
// unconfigured backend.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// TwilioNotifier sends WhatsApp messages through Twilio's Programmable
// Messaging REST API. No Twilio SDK exists anywhere in the example
// pack, so this talks to the API directly over net/http rather than
// pulling in an unprecedented third-party client — see DESIGN.md.
type TwilioNotifier struct {
	cfg    TwilioConfig
	client *http.Client
}

// NewTwilioNotifier builds a TwilioNotifier.
func NewTwilioNotifier(cfg TwilioConfig, client *http.Client) *TwilioNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &TwilioNotifier{cfg: cfg, client: client}
}

// Configured reports whether Twilio credentials were supplied.
func (n *TwilioNotifier) Configured() bool {
	return n.cfg.AccountSID != "" && n.cfg.AuthToken != ""
}

// SendWhatsApp posts alert as a WhatsApp message to the Twilio
// Messages API.
func (n *TwilioNotifier) SendWhatsApp(ctx context.Context, to string, alert port.NotificationAlert) error {
	body := fmt.Sprintf("*%s ALERT*\n\n*Rule:* %s\n*Device:* %s\n*Time:* %s\n\n%s",
		strings.ToUpper(string(alert.Severity)), alert.RuleName, alert.DeviceName, alert.TriggeredAt, alert.Message)

	form := url.Values{
		"From": {"whatsapp:" + n.cfg.WhatsAppFrom},
		"To":   {"whatsapp:" + to},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", n.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio messages api returned status %d", resp.StatusCode)
	}
	return nil
}

// SendEmail is not implemented by the Twilio backend; see
// CompositeNotifier for the combined dispatcher-facing type.
func (n *TwilioNotifier) SendEmail(ctx context.Context, to string, alert port.NotificationAlert) error {
	return fmt.Errorf("twilio notifier does not support email delivery")
}
