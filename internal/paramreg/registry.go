// Package paramreg implements C3, the Parameter Registry: idempotent
// upsert of per-device parameter descriptors on first sighting.
package paramreg

import (
	"context"
	"log/slog"
	"time"

	"github.com/orchestrix/telemetry-core/internal/codec"
	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// Registry discovers parameters against the relational store.
type Registry struct {
	repo port.ParameterRepository
}

// New builds a Registry.
func New(repo port.ParameterRepository) *Registry {
	return &Registry{repo: repo}
}

// Discover upserts a Parameter row for every key in the payload's
// metrics map, keyed by (device_id, parameter_key). Data type is
// derived from the payload's int/float distinction (codec.Payload's
// IntKeys); user-editable fields (is_kpi_selected, display name, unit)
// are never overwritten on re-sighting, only updated_at is touched.
// Returns which keys were newly discovered. The operation is
// idempotent under arbitrary repetition and concurrent with itself on
// the same key.
func (r *Registry) Discover(ctx context.Context, tenantID, deviceID int64, payload codec.Payload, at time.Time) map[string]bool {
	newlyDiscovered := make(map[string]bool, len(payload.Metrics))
	for key := range payload.Metrics {
		dataType := domain.ParameterDataTypeFloat
		if payload.IntKeys[key] {
			dataType = domain.ParameterDataTypeInt
		}

		isNew, err := r.repo.Upsert(ctx, tenantID, deviceID, key, dataType, at)
		if err != nil {
			slog.Error("parameter.discovery_error", "device_id", deviceID, "parameter", key, "error", err)
			continue
		}
		newlyDiscovered[key] = isNew
		if isNew {
			slog.Info("parameter.discovered", "tenant_id", tenantID, "device_id", deviceID, "parameter", key, "data_type", dataType)
		}
	}
	return newlyDiscovered
}
