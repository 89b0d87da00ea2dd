// Package activity holds the Temporal activities that bridge job
// runner task queues to the core's driving ports. Each activity is a
// thin, synchronous wrapper: Go activities are already plain
// functions, so unlike the source project there is no async-core/
// sync-shim split to bridge (see the sync/async design note this
// carries forward).
package activity

import (
	"context"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// Activities bundles the core ports every registered activity method
// needs. A single instance is registered with the Temporal worker in
// cmd/worker.
type Activities struct {
	RuleEngine   port.RuleEngineTask
	Notifier     port.NotificationDispatcher
	AnalyticsJob AnalyticsRunner
	ReportJob    ReportRunner
}

// AnalyticsRunner executes a tenant's analytics job and uploads its
// output, returning the object-storage URL.
type AnalyticsRunner interface {
	Run(ctx context.Context, tenantID, jobID int64, params map[string]any) (resultURL string, err error)
}

// ReportRunner executes a tenant's report job and uploads its output.
type ReportRunner interface {
	Run(ctx context.Context, tenantID, jobID int64, params map[string]any) (resultURL string, err error)
}

// EvaluateRules is the rule_engine queue's activity.
func (a *Activities) EvaluateRules(ctx context.Context, task port.RuleEvalTask) error {
	return a.RuleEngine.Run(ctx, task)
}

// SendNotifications is the notifications queue's activity.
func (a *Activities) SendNotifications(ctx context.Context, task port.NotifyTask) error {
	return a.Notifier.Dispatch(ctx, task)
}

// AnalyticsTaskInput is the analytics queue's activity input.
type AnalyticsTaskInput struct {
	TenantID int64
	JobID    int64
	Params   map[string]any
}

// RunAnalytics is the analytics queue's activity.
func (a *Activities) RunAnalytics(ctx context.Context, in AnalyticsTaskInput) (string, error) {
	return a.AnalyticsJob.Run(ctx, in.TenantID, in.JobID, in.Params)
}

// ReportTaskInput is the reporting queue's activity input.
type ReportTaskInput struct {
	TenantID int64
	JobID    int64
	Params   map[string]any
}

// GenerateReport is the reporting queue's activity.
func (a *Activities) GenerateReport(ctx context.Context, in ReportTaskInput) (string, error) {
	return a.ReportJob.Run(ctx, in.TenantID, in.JobID, in.Params)
}
