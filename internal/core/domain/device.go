package domain

import "time"

// Device is a physical emitter, identified by a tenant-unique key.
// It is created either by the (out-of-scope) HTTP facade or
// auto-created by the identity cache on first telemetry sighting.
type Device struct {
	ID         int64
	TenantID   int64
	DeviceKey  string
	Name       string
	Active     bool
	LastSeenAt *time.Time
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDevice builds a Device the way C2's auto-registration path does:
// active, last-seen set to the sighting instant, display name set to
// the device key.
func NewDevice(tenantID int64, deviceKey string, seenAt time.Time) *Device {
	return &Device{
		TenantID:   tenantID,
		DeviceKey:  deviceKey,
		Name:       deviceKey,
		Active:     true,
		LastSeenAt: &seenAt,
	}
}
