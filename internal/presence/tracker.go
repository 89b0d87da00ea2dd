// Package presence implements C5: writing a device's last-seen
// timestamp through to the relational store with no causal dependency
// on downstream steps.
package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// Tracker updates Device.LastSeenAt.
type Tracker struct {
	devices port.DeviceRepository
}

// New builds a Tracker.
func New(devices port.DeviceRepository) *Tracker {
	return &Tracker{devices: devices}
}

// UpdateLastSeen writes through to the relational store. Failure is
// logged and swallowed: stale presence is a lesser harm than rejecting
// telemetry.
func (t *Tracker) UpdateLastSeen(ctx context.Context, deviceID int64, at time.Time) {
	if err := t.devices.UpdateLastSeen(ctx, deviceID, at); err != nil {
		slog.Error("presence.update_error", "device_id", deviceID, "error", err)
	}
}
