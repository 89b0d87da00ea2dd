package domain

import (
	"encoding/json"
	"time"
)

// RuleScope selects which Devices a Rule applies to.
type RuleScope string

const (
	RuleScopeDevice RuleScope = "device"
	RuleScopeGlobal RuleScope = "global"
)

// ScheduleType selects how the schedule gate restricts when a Rule is
// eligible to fire.
type ScheduleType string

const (
	ScheduleAlways     ScheduleType = "always"
	ScheduleTimeWindow ScheduleType = "time_window"
	ScheduleDateRange  ScheduleType = "date_range"
)

// Severity is snapshotted onto an Alert at the moment it is triggered.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// NotificationChannels is the per-rule channel selection consulted by
// the notification dispatcher.
type NotificationChannels struct {
	Email    bool `json:"email"`
	WhatsApp bool `json:"whatsapp"`
}

// TimeWindowSchedule is the config payload for ScheduleTimeWindow.
// Days uses ISO weekday numbers (1=Monday .. 7=Sunday). StartTime and
// EndTime are "HH:MM" in the tenant's timezone.
type TimeWindowSchedule struct {
	Days      []int  `json:"days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DateRangeSchedule is the config payload for ScheduleDateRange.
// StartDate/EndDate are ISO-8601 dates ("2024-01-15").
type DateRangeSchedule struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Condition is the tagged-variant condition tree node from §4.7: an
// internal AND/OR node carries Conditions; a leaf carries Parameter,
// Operator and Value. The JSON form discriminates by the presence of
// the "conditions" key, so IsInternal is derived, not serialized.
type Condition struct {
	Operator   string      `json:"operator"`
	Conditions []Condition `json:"conditions,omitempty"`
	Parameter  string      `json:"parameter,omitempty"`
	Value      float64     `json:"value,omitempty"`
}

// IsInternal reports whether this node is an AND/OR node rather than a
// comparison leaf. Discriminated by the presence of "conditions" in
// the decoded JSON, matching the original implementation.
func (c Condition) IsInternal() bool {
	return c.Conditions != nil
}

// Rule is a user-authored predicate over the latest metrics; fires
// Alerts. Belongs to a Tenant; a device-scoped Rule additionally links
// to one or more Devices through a separate association table.
type Rule struct {
	ID              int64
	TenantID        int64
	Name            string
	Scope           RuleScope
	Condition       Condition
	CooldownMinutes int
	Active          bool
	ScheduleType    ScheduleType
	ScheduleConfig  json.RawMessage
	Severity        Severity
	Channels        NotificationChannels
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ParseTimeWindow decodes ScheduleConfig as a TimeWindowSchedule.
func (r *Rule) ParseTimeWindow() (*TimeWindowSchedule, error) {
	var cfg TimeWindowSchedule
	if err := json.Unmarshal(r.ScheduleConfig, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseDateRange decodes ScheduleConfig as a DateRangeSchedule.
func (r *Rule) ParseDateRange() (*DateRangeSchedule, error) {
	var cfg DateRangeSchedule
	if err := json.Unmarshal(r.ScheduleConfig, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AppliesToDevice reports whether this rule should be considered for
// the given device. Callers are expected to have already restricted
// the candidate set to this rule's tenant and to rules linked to the
// device (for device scope) via the repository query; this is a
// defensive second check for scope == global.
func (r *Rule) AppliesToDevice(linked bool) bool {
	if r.Scope == RuleScopeGlobal {
		return true
	}
	return linked
}
