package timeseries

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// Reader implements port.TimeSeriesReader over the same InfluxDB
// bucket Writer populates, used by the analytics and reporting jobs
// (SPEC_FULL §C) to pull the raw window they operate over.
type Reader struct {
	queryAPI api.QueryAPI
	bucket   string
}

// NewReader builds a Reader against the same client/org/bucket Writer
// is configured with.
func NewReader(client influxdb2.Client, org, bucket string) *Reader {
	return &Reader{queryAPI: client.QueryAPI(org), bucket: bucket}
}

// Query returns every (device, parameter, value, time) sample in
// [from, to) for tenantID, restricted to deviceIDs when non-empty.
func (r *Reader) Query(ctx context.Context, tenantID int64, deviceIDs []int64, from, to time.Time) ([]port.TimeSeriesPoint, error) {
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.tenant_id == %q)
  |> filter(fn: (r) => r._field == "value")
%s`,
		r.bucket,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
		measurement,
		strconv.FormatInt(tenantID, 10),
		deviceFilter(deviceIDs),
	)

	result, err := r.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query telemetry: %w", err)
	}
	defer result.Close()

	var points []port.TimeSeriesPoint
	for result.Next() {
		rec := result.Record()
		deviceID, err := strconv.ParseInt(fmt.Sprint(rec.ValueByKey("device_id")), 10, 64)
		if err != nil {
			continue
		}
		value, ok := rec.Value().(float64)
		if !ok {
			continue
		}
		points = append(points, port.TimeSeriesPoint{
			DeviceID:  deviceID,
			Parameter: fmt.Sprint(rec.ValueByKey("parameter")),
			Value:     value,
			Time:      rec.Time(),
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query telemetry: %w", result.Err())
	}
	return points, nil
}

func deviceFilter(deviceIDs []int64) string {
	if len(deviceIDs) == 0 {
		return ""
	}
	clauses := make([]string, len(deviceIDs))
	for i, id := range deviceIDs {
		clauses[i] = fmt.Sprintf(`r.device_id == "%d"`, id)
	}
	return fmt.Sprintf("  |> filter(fn: (r) => %s)\n", strings.Join(clauses, " or "))
}
