package ruleengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
	"github.com/orchestrix/telemetry-core/internal/ruleeval"
)

// Task implements port.RuleEngineTask.
type Task struct {
	tenants   port.TenantRepository
	rules     port.RuleRepository
	cooldowns port.CooldownRepository
	alerts    port.AlertRepository
	jobs      port.JobRunner
}

// New builds a Task.
func New(tenants port.TenantRepository, rules port.RuleRepository, cooldowns port.CooldownRepository, alerts port.AlertRepository, jobs port.JobRunner) *Task {
	return &Task{tenants: tenants, rules: rules, cooldowns: cooldowns, alerts: alerts, jobs: jobs}
}

// Run evaluates every applicable rule for task.DeviceID against
// task.Metrics, serially, in the order the repository returns them. A
// failure evaluating one rule is logged and does not affect the
// others; Run itself never returns an error for a per-rule failure,
// only when loading the tenant or the rule set fails.
func (t *Task) Run(ctx context.Context, task port.RuleEvalTask) error {
	tenant, err := t.tenants.FindByID(ctx, task.TenantID)
	if err != nil {
		slog.Error("rule.tenant_load_error", "tenant_id", task.TenantID, "error", err)
		return err
	}

	rules, err := t.rules.ListApplicable(ctx, task.TenantID, task.DeviceID)
	if err != nil {
		slog.Error("rule.list_error", "tenant_id", task.TenantID, "device_id", task.DeviceID, "error", err)
		return err
	}

	slog.Info("rule.evaluation_started", "tenant_id", task.TenantID, "device_id", task.DeviceID, "rule_count", len(rules))

	loc := tenant.Location()
	for _, rule := range rules {
		t.evaluateOne(ctx, rule, task, loc)
	}
	return nil
}

func (t *Task) evaluateOne(ctx context.Context, rule *domain.Rule, task port.RuleEvalTask, loc *time.Location) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("rule.evaluation_error", "rule_id", rule.ID, "error", r)
		}
	}()

	if !scheduled(rule, task.Timestamp, loc) {
		slog.Debug("rule.skipped_not_scheduled", "rule_id", rule.ID)
		return
	}

	cooldown, err := t.cooldowns.Find(ctx, rule.ID, task.DeviceID)
	if err != nil {
		slog.Error("rule.evaluation_error", "rule_id", rule.ID, "error", err)
		return
	}
	if inCooldown(rule, cooldown, task.Timestamp) {
		slog.Debug("rule.skipped_cooldown", "rule_id", rule.ID, "device_id", task.DeviceID)
		return
	}

	if !ruleeval.Evaluate(rule.Condition, task.Metrics) {
		return
	}

	alert := &domain.Alert{
		TenantID:          task.TenantID,
		RuleID:            rule.ID,
		DeviceID:          task.DeviceID,
		TriggeredAt:       task.Timestamp,
		Severity:          rule.Severity,
		Message:           ruleeval.BuildAlertMessage(rule.Name, rule.Condition, task.Metrics),
		TelemetrySnapshot: task.Metrics,
	}
	created, err := t.alerts.Create(ctx, alert)
	if err != nil {
		slog.Error("rule.evaluation_error", "rule_id", rule.ID, "error", err)
		return
	}

	if err := t.cooldowns.Upsert(ctx, rule.ID, task.DeviceID, task.Timestamp); err != nil {
		slog.Error("rule.cooldown_upsert_error", "rule_id", rule.ID, "device_id", task.DeviceID, "error", err)
	}

	if err := t.jobs.EnqueueNotify(ctx, port.NotifyTask{AlertID: created.ID, Channels: rule.Channels}); err != nil {
		slog.Error("rule.notify_enqueue_error", "alert_id", created.ID, "error", err)
	}

	slog.Info("alert.triggered", "tenant_id", task.TenantID, "device_id", task.DeviceID, "rule_id", rule.ID, "alert_id", created.ID, "severity", rule.Severity)
}
