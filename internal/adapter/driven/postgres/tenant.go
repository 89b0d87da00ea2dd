package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// TenantContextSetter implements port.TenantContextSetter: it sets the
// app.current_tenant_id GUC that the row-level security policies on
// tenant-owned tables read. The GUC is set transaction-locally
// (set_config's is_local=true) through the pool, outside any
// transaction, so it does not carry over to later queries.
type TenantContextSetter struct {
	pool *pgxpool.Pool
}

// NewTenantContextSetter creates a new tenant context setter.
func NewTenantContextSetter(pool *pgxpool.Pool) *TenantContextSetter {
	return &TenantContextSetter{pool: pool}
}

// SetTenantContext sets the tenant context for RLS.
func (s *TenantContextSetter) SetTenantContext(ctx context.Context, tenantID int64) error {
	_, err := s.pool.Exec(ctx,
		"SELECT set_config('app.current_tenant_id', $1, true)",
		tenantID)
	return err
}

// TenantRepository implements port.TenantRepository.
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository builds a TenantRepository.
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

const tenantColumns = "id, slug, name, timezone, created_at, updated_at"

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var createdAt, updatedAt time.Time
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Timezone, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	t.CreatedAt, t.UpdatedAt = createdAt, updatedAt
	return &t, nil
}

// FindBySlug is the unauthenticated lookup the identity cache uses to
// resolve an inbound topic's factory slug into a tenant; it runs
// outside RLS scope since the caller does not yet know the tenant id.
func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE slug = $1", slug)
	return scanTenant(row)
}

// FindByID looks up a tenant. Callers that already hold RLS-scoped
// access (e.g. the rule engine task, which receives tenant_id from a
// trusted job payload) may call this with the RLS context already set.
func (r *TenantRepository) FindByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
	return scanTenant(row)
}
