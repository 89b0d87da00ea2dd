package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

type fakeAlertRepo struct {
	alert      *domain.Alert
	markedSent []int64
}

func (f *fakeAlertRepo) Create(_ context.Context, a *domain.Alert) (*domain.Alert, error) { return a, nil }
func (f *fakeAlertRepo) FindByID(_ context.Context, id int64) (*domain.Alert, error) {
	return f.alert, nil
}
func (f *fakeAlertRepo) MarkNotificationSent(_ context.Context, id int64) error {
	f.markedSent = append(f.markedSent, id)
	return nil
}

type fakeRuleRepo struct{ rule *domain.Rule }

func (f *fakeRuleRepo) ListApplicable(_ context.Context, tenantID, deviceID int64) ([]*domain.Rule, error) {
	return nil, nil
}
func (f *fakeRuleRepo) FindByID(_ context.Context, id int64) (*domain.Rule, error) { return f.rule, nil }

type fakeDeviceRepoN struct{ device *domain.Device }

func (f *fakeDeviceRepoN) FindByKey(_ context.Context, tenantID int64, key string) (*domain.Device, error) {
	return f.device, nil
}
func (f *fakeDeviceRepoN) FindByID(_ context.Context, id int64) (*domain.Device, error) {
	return f.device, nil
}
func (f *fakeDeviceRepoN) Create(_ context.Context, d *domain.Device) (*domain.Device, error) {
	return d, nil
}
func (f *fakeDeviceRepoN) UpdateLastSeen(_ context.Context, id int64, seenAt time.Time) error {
	return nil
}

type fakeUserRepo struct{ users []*domain.User }

func (f *fakeUserRepo) FindActiveByTenant(_ context.Context, tenantID int64) ([]*domain.User, error) {
	return f.users, nil
}

type fakeNotifier struct {
	emailCalls    []string
	whatsAppCalls []string
	emailErr      error
	whatsAppErr   error
}

func (f *fakeNotifier) SendEmail(_ context.Context, to string, alert port.NotificationAlert) error {
	f.emailCalls = append(f.emailCalls, to)
	return f.emailErr
}
func (f *fakeNotifier) SendWhatsApp(_ context.Context, to string, alert port.NotificationAlert) error {
	f.whatsAppCalls = append(f.whatsAppCalls, to)
	return f.whatsAppErr
}

func whatsAppNum(n string) *string { return &n }

func TestDispatch_PerChannelIsolation(t *testing.T) {
	alerts := &fakeAlertRepo{alert: &domain.Alert{ID: 1, TenantID: 1, RuleID: 1, DeviceID: 1, Severity: domain.SeverityHigh, Message: "m"}}
	rules := &fakeRuleRepo{rule: &domain.Rule{ID: 1, Name: "R1"}}
	devices := &fakeDeviceRepoN{device: &domain.Device{ID: 1, Name: "M01", DeviceKey: "M01"}}
	users := &fakeUserRepo{users: []*domain.User{
		{ID: 1, Email: "alice@example.com", Active: true, WhatsAppNumber: whatsAppNum("+15551234567")},
		{ID: 2, Email: "bob@example.com", Active: true},
	}}
	notifier := &fakeNotifier{emailErr: assertErr("smtp down")}

	d := New(alerts, rules, devices, users, notifier)
	err := d.Dispatch(context.Background(), port.NotifyTask{AlertID: 1, Channels: domain.NotificationChannels{Email: true, WhatsApp: true}})
	require.NoError(t, err)

	assert.Len(t, notifier.emailCalls, 2, "email attempted for both users despite failure")
	assert.Len(t, notifier.whatsAppCalls, 1, "whatsapp attempted only for the user with a number")
	assert.Equal(t, []int64{1}, alerts.markedSent, "notification_sent set even though email failed")
}

func TestDispatch_ChannelDisabledSkipsEntirely(t *testing.T) {
	alerts := &fakeAlertRepo{alert: &domain.Alert{ID: 1, TenantID: 1, RuleID: 1, DeviceID: 1}}
	rules := &fakeRuleRepo{rule: &domain.Rule{ID: 1, Name: "R1"}}
	devices := &fakeDeviceRepoN{device: &domain.Device{ID: 1, Name: "M01", DeviceKey: "M01"}}
	users := &fakeUserRepo{users: []*domain.User{{ID: 1, Email: "alice@example.com", Active: true}}}
	notifier := &fakeNotifier{}

	d := New(alerts, rules, devices, users, notifier)
	err := d.Dispatch(context.Background(), port.NotifyTask{AlertID: 1, Channels: domain.NotificationChannels{Email: false, WhatsApp: false}})
	require.NoError(t, err)
	assert.Empty(t, notifier.emailCalls)
	assert.Empty(t, notifier.whatsAppCalls)
	assert.Equal(t, []int64{1}, alerts.markedSent)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ali***@example.com", maskEmail("alice@example.com"))
	assert.Equal(t, "ab***@x.com", maskEmail("ab@x.com"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+155***567", maskPhone("+15551234567"))
	assert.Equal(t, "123", maskPhone("123"))
}
