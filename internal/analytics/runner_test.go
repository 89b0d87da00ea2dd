package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

type fakeReader struct {
	points []port.TimeSeriesPoint
	err    error
}

func (f *fakeReader) Query(_ context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]port.TimeSeriesPoint, error) {
	return f.points, f.err
}

type fakeStore struct {
	putErr error
	kind   string
}

func (f *fakeStore) Put(_ context.Context, tenantID int64, kind, id, ext string, body []byte) (string, error) {
	f.kind = kind
	if f.putErr != nil {
		return "", f.putErr
	}
	return "https://store/" + kind + "/" + id + "." + ext, nil
}

type fakeJobs struct {
	statuses []domain.JobStatus
}

func (f *fakeJobs) Create(_ context.Context, j *domain.Job) (*domain.Job, error) { return j, nil }
func (f *fakeJobs) UpdateStatus(_ context.Context, id int64, status domain.JobStatus, errMsg, resultURL *string, at time.Time) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func genPoints(n int, param string, base time.Time) []port.TimeSeriesPoint {
	points := make([]port.TimeSeriesPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, port.TimeSeriesPoint{DeviceID: 1, Parameter: param, Value: 10.0, Time: base.Add(time.Duration(i) * time.Minute)})
	}
	return points
}

func baseParams(from, to time.Time, jobType string) map[string]any {
	return map[string]any{
		"device_ids":       []any{float64(1)},
		"date_range_start": from.Format(time.RFC3339),
		"date_range_end":   to.Format(time.RFC3339),
		"job_type":         jobType,
	}
}

func TestRunner_AnomalyDetection_FlagsOutliers(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := genPoints(20, "voltage", base)
	points = append(points, port.TimeSeriesPoint{DeviceID: 1, Parameter: "voltage", Value: 500.0, Time: base.Add(21 * time.Minute)})

	reader := &fakeReader{points: points}
	store := &fakeStore{}
	jobs := &fakeJobs{}
	r := New(reader, store, jobs)

	url, err := r.Run(context.Background(), 1, 99, baseParams(base, base.Add(time.Hour), JobTypeAnomaly))
	require.NoError(t, err)
	assert.Equal(t, "https://store/analytics/99.json", url)
	assert.Equal(t, "analytics", store.kind)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusComplete}, jobs.statuses)
	assert.Equal(t, 1, anomalyResult(points)["anomaly_count"])
}

func TestRunner_AnomalyDetection_InsufficientData(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{points: genPoints(3, "voltage", base)}
	r := New(reader, &fakeStore{}, &fakeJobs{})

	result, err := r.run(context.Background(), 1, baseParams(base, base.Add(time.Hour), JobTypeAnomaly))
	require.NoError(t, err)
	assert.Equal(t, "insufficient data for anomaly detection", result["error"])
}

func TestRunner_UnknownJobType_MarksFailed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{}
	r := New(&fakeReader{points: genPoints(5, "voltage", base)}, &fakeStore{}, jobs)

	_, err := r.Run(context.Background(), 1, 1, baseParams(base, base.Add(time.Hour), "bogus"))
	require.Error(t, err)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed}, jobs.statuses)
}

func TestRunner_StoreFailure_MarksFailed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{}
	r := New(&fakeReader{points: genPoints(25, "voltage", base)}, &fakeStore{putErr: assertErr("minio down")}, jobs)

	_, err := r.Run(context.Background(), 1, 1, baseParams(base, base.Add(time.Hour), JobTypeFailurePred))
	require.Error(t, err)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed}, jobs.statuses)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestComputeStats(t *testing.T) {
	s := computeStats([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Avg)
	assert.Equal(t, 5, s.Count)
}

func TestLinearTrend_FlatSeries(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := genPoints(30, "power", base)
	slope, intercept := linearTrend(points)
	assert.InDelta(t, 0, slope, 1e-9)
	assert.InDelta(t, 10.0, intercept, 1e-9)
}
