package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// ParameterRepository implements port.ParameterRepository.
type ParameterRepository struct {
	pool *pgxpool.Pool
}

// NewParameterRepository builds a ParameterRepository.
func NewParameterRepository(pool *pgxpool.Pool) *ParameterRepository {
	return &ParameterRepository{pool: pool}
}

// Upsert inserts a Parameter row on first sighting of (device_id,
// parameter_key), defaulting is_kpi_selected to true and leaving
// display_name/unit unset; on any later sighting it touches only
// updated_at, leaving every user-editable field untouched — this is
// the idempotence invariant from §8.
func (r *ParameterRepository) Upsert(ctx context.Context, tenantID, deviceID int64, key string, dataType domain.ParameterDataType, at time.Time) (bool, error) {
	var isNew bool
	err := r.pool.QueryRow(ctx,
		`INSERT INTO parameters (tenant_id, device_id, parameter_key, data_type, is_kpi_selected, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, true, $5, $5)
		 ON CONFLICT (device_id, parameter_key) DO UPDATE SET updated_at = $5
		 RETURNING (xmax = 0)`,
		tenantID, deviceID, key, dataType, at).Scan(&isNew)
	return isNew, err
}
