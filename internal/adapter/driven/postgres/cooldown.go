package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// CooldownRepository implements port.CooldownRepository (C9): CRUD
// over the (rule_id, device_id) composite-key row, no history.
//
// Reads and the single upsert are not wrapped in an explicit
// SELECT ... FOR UPDATE transaction here: the job runner guarantees
// single-active-execution per (tenant, device), so two workers never
// race on the same key (see §8's ordering guarantee and the job
// runner's workflow-id scheme). A deployment that relaxes that
// guarantee would need to add the transaction this type intentionally
// omits.
type CooldownRepository struct {
	pool *pgxpool.Pool
}

// NewCooldownRepository builds a CooldownRepository.
func NewCooldownRepository(pool *pgxpool.Pool) *CooldownRepository {
	return &CooldownRepository{pool: pool}
}

// Find reads the cooldown row by primary key, returning nil (not an
// error) when absent.
func (r *CooldownRepository) Find(ctx context.Context, ruleID, deviceID int64) (*domain.Cooldown, error) {
	var c domain.Cooldown
	err := r.pool.QueryRow(ctx,
		"SELECT rule_id, device_id, last_triggered FROM cooldowns WHERE rule_id = $1 AND device_id = $2",
		ruleID, deviceID).Scan(&c.RuleID, &c.DeviceID, &c.LastTriggered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Upsert sets last_triggered for (rule_id, device_id), creating the
// row if absent.
func (r *CooldownRepository) Upsert(ctx context.Context, ruleID, deviceID int64, triggeredAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cooldowns (rule_id, device_id, last_triggered)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (rule_id, device_id) DO UPDATE SET last_triggered = $3`,
		ruleID, deviceID, triggeredAt)
	return err
}
