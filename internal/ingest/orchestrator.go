// Package ingest implements C6, the Ingestion Orchestrator: composes
// C1-C5, enqueues a rule-evaluation job, and survives every per-message
// error. One call per inbound broker message.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/orchestrix/telemetry-core/internal/codec"
	"github.com/orchestrix/telemetry-core/internal/core/port"
	"github.com/orchestrix/telemetry-core/internal/paramreg"
	"github.com/orchestrix/telemetry-core/internal/presence"
	"github.com/orchestrix/telemetry-core/pkg/observability"
)

// Orchestrator implements port.Ingestor.
type Orchestrator struct {
	identity   port.IdentityCache
	parameters *paramreg.Registry
	writer     port.TimeSeriesWriter
	presence   *presence.Tracker
	jobs       port.JobRunner
	now        func() time.Time
}

// New builds an Orchestrator.
func New(identity port.IdentityCache, parameters *paramreg.Registry, writer port.TimeSeriesWriter, presenceTracker *presence.Tracker, jobs port.JobRunner) *Orchestrator {
	return &Orchestrator{
		identity:   identity,
		parameters: parameters,
		writer:     writer,
		presence:   presenceTracker,
		jobs:       jobs,
		now:        time.Now,
	}
}

// Ingest runs the full pipeline from §4.6. It never propagates an
// error: every dependency call is guarded, every failure is logged
// with topic and whatever identifiers were already resolved, and the
// caller's loop must proceed to the next message regardless of the
// fate of this one. The returned error is always nil; it exists only
// so port.Ingestor is satisfiable and testable.
func (o *Orchestrator) Ingest(ctx context.Context, topic string, payload []byte) error {
	metrics := observability.GetMetrics()

	slug, deviceKey, err := codec.ParseTopic(topic)
	if err != nil {
		slog.Warn("ingest.invalid_topic", "topic", topic, "error", err)
		return nil
	}

	data, err := codec.ParsePayload(payload)
	if err != nil {
		slog.Warn("ingest.invalid_payload", "topic", topic, "error", err)
		return nil
	}

	ts := o.now().UTC()
	if data.Timestamp != nil {
		ts = data.Timestamp.UTC()
	}

	tenant, err := o.identity.ResolveTenant(ctx, slug)
	if err != nil {
		slog.Warn("ingest.unknown_tenant", "slug", slug, "error", err)
		return nil
	}

	device, err := o.identity.ResolveOrCreateDevice(ctx, tenant.ID, deviceKey, ts)
	if err != nil {
		slog.Error("ingest.identity_store_error", "tenant_id", tenant.ID, "device_key", deviceKey, "error", err)
		return nil
	}

	o.parameters.Discover(ctx, tenant.ID, device.ID, data, ts)

	if err := o.writer.Write(ctx, tenant.ID, device.ID, data.Metrics, ts); err != nil {
		slog.Error("ingest.timeseries_write_error", "tenant_id", tenant.ID, "device_id", device.ID, "error", err)
	}

	o.presence.UpdateLastSeen(ctx, device.ID, ts)

	if err := o.jobs.EnqueueRuleEval(ctx, port.RuleEvalTask{
		TenantID:  tenant.ID,
		DeviceID:  device.ID,
		Metrics:   data.Metrics,
		Timestamp: ts,
	}); err != nil {
		slog.Error("ingest.enqueue_error", "tenant_id", tenant.ID, "device_id", device.ID, "error", err)
	}

	if metrics != nil {
		metrics.IngestedMessagesTotal.WithLabelValues(slug).Inc()
	}

	return nil
}
