package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// RuleRepository implements port.RuleRepository.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository builds a RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, tenant_id, name, scope, condition, cooldown_minutes, active,
	schedule_type, schedule_config, severity, channels, created_by, created_at, updated_at`

func scanRule(row pgx.Row) (*domain.Rule, error) {
	var r domain.Rule
	var condition, channels []byte
	if err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Scope, &condition, &r.CooldownMinutes,
		&r.Active, &r.ScheduleType, &r.ScheduleConfig, &r.Severity, &channels, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(condition, &r.Condition); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(channels, &r.Channels); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListApplicable returns every active rule in tenantID that is either
// globally scoped or linked to deviceID through rule_devices.
func (r *RuleRepository) ListApplicable(ctx context.Context, tenantID, deviceID int64) ([]*domain.Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM rules
		 WHERE tenant_id = $1 AND active = true
		   AND (scope = 'global' OR id IN (SELECT rule_id FROM rule_devices WHERE device_id = $2))
		 ORDER BY id`,
		tenantID, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// FindByID looks up a rule by primary key.
func (r *RuleRepository) FindByID(ctx context.Context, id int64) (*domain.Rule, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+ruleColumns+" FROM rules WHERE id = $1", id)
	return scanRule(row)
}
