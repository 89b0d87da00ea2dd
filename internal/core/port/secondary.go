package port

import (
	"context"
	"time"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// ============================================================================
// SECONDARY PORTS (Driven)
// These interfaces define what the core NEEDS from the outside world.
// They are IMPLEMENTED by adapters (postgres, redis, influxdb, temporal, ...)
// ============================================================================

// TenantRepository is the relational store's view of Tenant.
type TenantRepository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	FindByID(ctx context.Context, id int64) (*domain.Tenant, error)
}

// UserRepository is the relational store's view of User.
type UserRepository interface {
	FindActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.User, error)
}

// DeviceRepository is the relational store's view of Device.
type DeviceRepository interface {
	// FindByKey returns (nil, nil) when no device with that key exists
	// yet, the same absent-value contract CooldownRepository.Find uses,
	// so callers can fall through to Create without special-casing an
	// error. FindByID, looking up a device expected to already exist,
	// returns domain.ErrDeviceNotFound instead.
	FindByKey(ctx context.Context, tenantID int64, deviceKey string) (*domain.Device, error)
	FindByID(ctx context.Context, id int64) (*domain.Device, error)
	// Create inserts a new Device. Implementations must treat the
	// unique index on (tenant_id, device_key) as authoritative: on a
	// conflict, they re-read and return the winning row rather than
	// erroring, so concurrent first-sightings still yield one Device.
	Create(ctx context.Context, device *domain.Device) (*domain.Device, error)
	UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error
}

// ParameterRepository is the relational store's view of Parameter.
type ParameterRepository interface {
	// Upsert inserts (device_id, parameter_key) if absent with the
	// given data type and is_kpi_selected=true, or touches only
	// updated_at if present. Returns whether the row was newly
	// created.
	Upsert(ctx context.Context, tenantID, deviceID int64, key string, dataType domain.ParameterDataType, at time.Time) (isNew bool, err error)
}

// RuleRepository is the relational store's view of Rule and its
// device-link association table.
type RuleRepository interface {
	// ListApplicable returns every active Rule in tenantID whose scope
	// is global, or whose device link table contains deviceID.
	ListApplicable(ctx context.Context, tenantID, deviceID int64) ([]*domain.Rule, error)
	FindByID(ctx context.Context, id int64) (*domain.Rule, error)
}

// CooldownRepository is C9: CRUD over the (rule_id, device_id)
// composite-key row, with a single-row upsert as the only mutator.
type CooldownRepository interface {
	Find(ctx context.Context, ruleID, deviceID int64) (*domain.Cooldown, error)
	// Upsert sets last_triggered for (rule_id, device_id), creating the
	// row if absent. Implementations used under parallel workers on
	// the same key must take this inside a SELECT ... FOR UPDATE
	// transaction together with the cooldown-gate read (see §4.8).
	Upsert(ctx context.Context, ruleID, deviceID int64, triggeredAt time.Time) error
}

// AlertRepository is the relational store's view of Alert.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	FindByID(ctx context.Context, id int64) (*domain.Alert, error)
	MarkNotificationSent(ctx context.Context, id int64) error
	// ListByDevices supports the supplemented report-generation feature
	// (SPEC_FULL §C): every alert for one of deviceIDs triggered in
	// [from, to), newest first.
	ListByDevices(ctx context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]*domain.Alert, error)
}

// JobRepository tracks the Job record for analytics/reporting jobs
// (§3, §6). The fast rule-evaluation path never touches it.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id int64, status domain.JobStatus, errMsg, resultURL *string, at time.Time) error
}

// IdentityCache is C2: the short-TTL key/value mirror of the Tenant
// and Device hot paths, advisory over the relational store.
type IdentityCache interface {
	ResolveTenant(ctx context.Context, slug string) (*domain.Tenant, error)
	ResolveOrCreateDevice(ctx context.Context, tenantID int64, deviceKey string, now time.Time) (*domain.Device, error)
}

// TimeSeriesWriter is C4: converts a metrics map + timestamp into
// tagged points and writes them in a single per-message batch.
type TimeSeriesWriter interface {
	Write(ctx context.Context, tenantID, deviceID int64, metrics map[string]float64, at time.Time) error
}

// TimeSeriesPoint is one sample returned by a TimeSeriesReader query:
// one parameter's value for one device at one instant.
type TimeSeriesPoint struct {
	DeviceID  int64
	Parameter string
	Value     float64
	Time      time.Time
}

// TimeSeriesReader supports the supplemented analytics/reporting
// feature (SPEC_FULL §C): it fetches the raw telemetry window an
// analytics or report job operates over. Nothing in the core imports
// InfluxDB directly; only the influxdb adapter implements this.
type TimeSeriesReader interface {
	Query(ctx context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]TimeSeriesPoint, error)
}

// RuleEvalTask is the payload C6 hands to C10's rule_engine queue and
// C8 receives back out of it.
type RuleEvalTask struct {
	TenantID  int64
	DeviceID  int64
	Metrics   map[string]float64
	Timestamp time.Time
}

// NotifyTask is the payload C8 hands to C10's notifications queue.
type NotifyTask struct {
	AlertID  int64
	Channels domain.NotificationChannels
}

// JobRunner is C10: an at-least-once background task dispatcher. It is
// deliberately backend-agnostic — the temporal adapter is the only
// implementation, but nothing in the core imports Temporal directly.
type JobRunner interface {
	EnqueueRuleEval(ctx context.Context, task RuleEvalTask) error
	EnqueueNotify(ctx context.Context, task NotifyTask) error
	EnqueueAnalytics(ctx context.Context, tenantID int64, jobID int64, params map[string]any) error
	EnqueueReport(ctx context.Context, tenantID int64, jobID int64, params map[string]any) error
}

// Notifier is C11's delivery backend: SMTP and WhatsApp (Twilio),
// pluggable and individually optional.
type Notifier interface {
	SendEmail(ctx context.Context, to string, alert NotificationAlert) error
	SendWhatsApp(ctx context.Context, to string, alert NotificationAlert) error
}

// NotificationAlert is the denormalized view of an Alert the
// dispatcher assembles before handing it to a Notifier backend.
type NotificationAlert struct {
	ID                int64
	RuleName          string
	DeviceName        string
	DeviceKey         string
	Severity          domain.Severity
	Message           string
	TriggeredAt       time.Time
	TelemetrySnapshot map[string]float64
}

// ObjectStore is the object-storage port supplementing §6's layout for
// analytics/report job outputs.
type ObjectStore interface {
	// Put uploads body under "<tenantID>/<kind>/<id>.<ext>" and returns
	// a time-limited signed URL.
	Put(ctx context.Context, tenantID int64, kind, id, ext string, body []byte) (url string, err error)
}

// TenantContextSetter scopes the relational connection to a tenant for
// Postgres row-level security.
type TenantContextSetter interface {
	SetTenantContext(ctx context.Context, tenantID int64) error
}
