package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// UserRepository implements port.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindActiveByTenant lists every active user of tenantID, relying on
// the RLS policy on users to additionally enforce tenant scoping.
func (r *UserRepository) FindActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, email, password_hash, role, active, whatsapp_number, created_at, updated_at
		 FROM users WHERE tenant_id = $1 AND active = true`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.WhatsAppNumber, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
