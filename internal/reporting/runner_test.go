package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

type fakeReader struct{ points []port.TimeSeriesPoint }

func (f *fakeReader) Query(_ context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]port.TimeSeriesPoint, error) {
	return f.points, nil
}

type fakeDevices struct{ byID map[int64]*domain.Device }

func (f *fakeDevices) FindByKey(_ context.Context, tenantID int64, key string) (*domain.Device, error) {
	return nil, domain.ErrDeviceNotFound
}
func (f *fakeDevices) FindByID(_ context.Context, id int64) (*domain.Device, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound
	}
	return d, nil
}
func (f *fakeDevices) Create(_ context.Context, d *domain.Device) (*domain.Device, error) { return d, nil }
func (f *fakeDevices) UpdateLastSeen(_ context.Context, id int64, seenAt time.Time) error  { return nil }

type fakeAlerts struct{ alerts []*domain.Alert }

func (f *fakeAlerts) Create(_ context.Context, a *domain.Alert) (*domain.Alert, error) { return a, nil }
func (f *fakeAlerts) FindByID(_ context.Context, id int64) (*domain.Alert, error)      { return nil, nil }
func (f *fakeAlerts) MarkNotificationSent(_ context.Context, id int64) error           { return nil }
func (f *fakeAlerts) ListByDevices(_ context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]*domain.Alert, error) {
	return f.alerts, nil
}

type fakeStore struct{ lastKey string }

func (f *fakeStore) Put(_ context.Context, tenantID int64, kind, id, ext string, body []byte) (string, error) {
	f.lastKey = kind + "/" + id + "." + ext
	return "https://store/" + f.lastKey, nil
}

type fakeJobs struct{ statuses []domain.JobStatus }

func (f *fakeJobs) Create(_ context.Context, j *domain.Job) (*domain.Job, error) { return j, nil }
func (f *fakeJobs) UpdateStatus(_ context.Context, id int64, status domain.JobStatus, errMsg, resultURL *string, at time.Time) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func TestRunner_BuildsReportWithDevicesAlertsAndTelemetry(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	devices := &fakeDevices{byID: map[int64]*domain.Device{
		1: {ID: 1, Name: "Press 1", DeviceKey: "press-1"},
	}}
	alerts := &fakeAlerts{alerts: []*domain.Alert{
		{ID: 10, DeviceID: 1, Severity: domain.SeverityHigh, Message: "overheat", TriggeredAt: base},
	}}
	reader := &fakeReader{points: []port.TimeSeriesPoint{
		{DeviceID: 1, Parameter: "voltage", Value: 10, Time: base},
		{DeviceID: 1, Parameter: "voltage", Value: 20, Time: base.Add(time.Minute)},
	}}
	store := &fakeStore{}
	jobs := &fakeJobs{}

	r := New(reader, devices, alerts, store, jobs)
	url, err := r.Run(context.Background(), 1, 5, map[string]any{
		"device_ids":       []any{float64(1)},
		"date_range_start": base.Format(time.RFC3339),
		"date_range_end":   base.Add(time.Hour).Format(time.RFC3339),
		"title":            "Weekly Summary",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://store/reports/5.json", url)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusComplete}, jobs.statuses)

	body, err := r.build(context.Background(), 1, map[string]any{
		"device_ids":       []any{float64(1)},
		"date_range_start": base.Format(time.RFC3339),
		"date_range_end":   base.Add(time.Hour).Format(time.RFC3339),
		"title":            "Weekly Summary",
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly Summary", body.Title)
	assert.Len(t, body.Devices, 1)
	assert.Len(t, body.Alerts, 1)
	assert.Equal(t, 1, body.AlertSummary["high"])
	assert.Contains(t, body.TelemetrySummary, "1")
}

func TestRunner_MissingDevice_MarksFailed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{}
	r := New(&fakeReader{}, &fakeDevices{byID: map[int64]*domain.Device{}}, &fakeAlerts{}, &fakeStore{}, jobs)

	_, err := r.Run(context.Background(), 1, 1, map[string]any{
		"device_ids":       []any{float64(99)},
		"date_range_start": base.Format(time.RFC3339),
		"date_range_end":   base.Add(time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed}, jobs.statuses)
}
