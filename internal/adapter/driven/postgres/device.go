package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// DeviceRepository implements port.DeviceRepository.
type DeviceRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceRepository builds a DeviceRepository.
func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

const deviceColumns = "id, tenant_id, device_key, name, active, last_seen_at, created_at, updated_at"

func scanDevice(row pgx.Row) (*domain.Device, error) {
	var d domain.Device
	if err := row.Scan(&d.ID, &d.TenantID, &d.DeviceKey, &d.Name, &d.Active, &d.LastSeenAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByKey looks up a device by its tenant-unique key. A miss returns
// (nil, nil), not domain.ErrDeviceNotFound: callers like
// IdentityCache.ResolveOrCreateDevice treat it as "not yet registered"
// and fall through to Create, the same contract CooldownRepository.Find
// uses for an absent cooldown.
func (r *DeviceRepository) FindByKey(ctx context.Context, tenantID int64, deviceKey string) (*domain.Device, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE tenant_id = $1 AND device_key = $2",
		tenantID, deviceKey)
	device, err := scanDevice(row)
	if errors.Is(err, domain.ErrDeviceNotFound) {
		return nil, nil
	}
	return device, err
}

// FindByID looks up a device by its primary key.
func (r *DeviceRepository) FindByID(ctx context.Context, id int64) (*domain.Device, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+deviceColumns+" FROM devices WHERE id = $1", id)
	return scanDevice(row)
}

// Create inserts device, treating the unique index on (tenant_id,
// device_key) as authoritative: on conflict it re-reads and returns
// the row the winning concurrent insert produced, so two concurrent
// first-sightings of the same (tenant, key) still yield exactly one
// Device row (§8's auto-registration uniqueness invariant).
func (r *DeviceRepository) Create(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO devices (tenant_id, device_key, name, active, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, device_key) DO UPDATE SET device_key = EXCLUDED.device_key
		 RETURNING `+deviceColumns,
		device.TenantID, device.DeviceKey, device.Name, device.Active, device.LastSeenAt)
	return scanDevice(row)
}

// UpdateLastSeen touches last_seen_at for a device.
func (r *DeviceRepository) UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE devices SET last_seen_at = $1, updated_at = now() WHERE id = $2", seenAt, id)
	return err
}
