package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// AlertRepository implements port.AlertRepository.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository builds an AlertRepository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertColumns = `id, tenant_id, rule_id, device_id, triggered_at, resolved_at,
	severity, message, telemetry_snapshot, notification_sent`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var snapshot []byte
	if err := row.Scan(&a.ID, &a.TenantID, &a.RuleID, &a.DeviceID, &a.TriggeredAt, &a.ResolvedAt,
		&a.Severity, &a.Message, &snapshot, &a.NotificationSent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &a.TelemetrySnapshot); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new, append-only Alert row.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	snapshot, err := json.Marshal(alert.TelemetrySnapshot)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO alerts (tenant_id, rule_id, device_id, triggered_at, severity, message, telemetry_snapshot, notification_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		 RETURNING `+alertColumns,
		alert.TenantID, alert.RuleID, alert.DeviceID, alert.TriggeredAt, alert.Severity, alert.Message, snapshot)
	return scanAlert(row)
}

// FindByID looks up an alert by primary key.
func (r *AlertRepository) FindByID(ctx context.Context, id int64) (*domain.Alert, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+alertColumns+" FROM alerts WHERE id = $1", id)
	return scanAlert(row)
}

// MarkNotificationSent flips the one-shot notification_sent flag.
func (r *AlertRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "UPDATE alerts SET notification_sent = true WHERE id = $1", id)
	return err
}

// ListByDevices returns every alert for one of deviceIDs triggered in
// [from, to), newest first, for the supplemented report-generation
// feature.
func (r *AlertRepository) ListByDevices(ctx context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]*domain.Alert, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE tenant_id = $1 AND device_id = ANY($2) AND triggered_at >= $3 AND triggered_at < $4
		 ORDER BY triggered_at DESC`,
		tenantID, deviceIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
