package port

import "context"

// ============================================================================
// PRIMARY PORTS (Driving)
// These interfaces define what the core OFFERS to the outside world.
// They are IMPLEMENTED by core services, CALLED by cmd/ingest, the
// Temporal activity wrappers in internal/activity, and tests.
// ============================================================================

// Ingestor is C6: one call per inbound broker message. It never
// propagates an error to its caller — every failure is logged and
// swallowed internally, per §4.6's error discipline. The error return
// exists for tests and is always nil in production use.
type Ingestor interface {
	Ingest(ctx context.Context, topic string, payload []byte) error
}

// RuleEngineTask is C8, invoked once per RuleEvalTask delivered by the
// job runner.
type RuleEngineTask interface {
	Run(ctx context.Context, task RuleEvalTask) error
}

// NotificationDispatcher is C11, invoked once per NotifyTask delivered
// by the job runner.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, task NotifyTask) error
}
