// Package workflow defines the Temporal workflows that back C10's
// four named queues: rule_engine, notifications, analytics, and
// reporting. Each workflow is a single-activity wrapper carrying the
// retry and time-limit policy from §4.10, carried over unchanged from
// the source project's Celery configuration.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/orchestrix/telemetry-core/internal/activity"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// hardTimeLimit and softTimeLimit are the universal per-task time
// limits from §4.10 (celery's task_time_limit / task_soft_time_limit):
// hard terminates the worker, soft raises a catchable signal the
// activity can observe via ctx.Done() ahead of the hard deadline.
const (
	hardTimeLimit = 3600 * time.Second
	softTimeLimit = 3300 * time.Second
)

// retryPolicy allows maxRetries retries after the first attempt;
// Temporal's MaximumAttempts counts that first attempt too.
func retryPolicy(maxRetries int32) *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    maxRetries + 1,
	}
}

// RuleEvalWorkflow runs one RuleEvalTask through the rule engine.
// Retries up to 3 times (§4.10).
func RuleEvalWorkflow(ctx workflow.Context, task port.RuleEvalTask) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: hardTimeLimit,
		HeartbeatTimeout:    softTimeLimit,
		RetryPolicy:         retryPolicy(3),
	})
	var a *activity.Activities
	return workflow.ExecuteActivity(ctx, a.EvaluateRules, task).Get(ctx, nil)
}

// NotifyWorkflow dispatches one NotifyTask. Retries up to 3 times.
func NotifyWorkflow(ctx workflow.Context, task port.NotifyTask) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: hardTimeLimit,
		HeartbeatTimeout:    softTimeLimit,
		RetryPolicy:         retryPolicy(3),
	})
	var a *activity.Activities
	return workflow.ExecuteActivity(ctx, a.SendNotifications, task).Get(ctx, nil)
}

// AnalyticsWorkflow runs one analytics job. Retries up to 1 time.
func AnalyticsWorkflow(ctx workflow.Context, in activity.AnalyticsTaskInput) (string, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: hardTimeLimit,
		HeartbeatTimeout:    softTimeLimit,
		RetryPolicy:         retryPolicy(1),
	})
	var a *activity.Activities
	var resultURL string
	err := workflow.ExecuteActivity(ctx, a.RunAnalytics, in).Get(ctx, &resultURL)
	return resultURL, err
}

// ReportWorkflow runs one report-generation job. Retries up to 1 time.
func ReportWorkflow(ctx workflow.Context, in activity.ReportTaskInput) (string, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: hardTimeLimit,
		HeartbeatTimeout:    softTimeLimit,
		RetryPolicy:         retryPolicy(1),
	})
	var a *activity.Activities
	var resultURL string
	err := workflow.ExecuteActivity(ctx, a.GenerateReport, in).Get(ctx, &resultURL)
	return resultURL, err
}
