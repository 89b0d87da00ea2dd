// Package timeseries implements C4, the Time-Series Writer: converts
// a metrics map + timestamp into tagged points and writes them in
// batches, one batch per inbound message.
package timeseries

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurement = "device_metrics"

// Writer implements port.TimeSeriesWriter over InfluxDB.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// New builds a Writer. The caller owns the InfluxDB client's lifetime
// and must Close it at shutdown.
func New(client influxdb2.Client, org, bucket string) *Writer {
	return &Writer{client: client, writeAPI: client.WriteAPIBlocking(org, bucket)}
}

// Write produces one point per (parameter, value) pair with tags
// {tenant_id, device_id, parameter} and field value, and writes the
// whole batch. Failures — connection loss, server rejection,
// serialization error — are logged and swallowed: telemetry-point
// loss is an accepted degradation, a process crash is not. A
// malformed individual value is skipped without aborting the batch.
func (w *Writer) Write(ctx context.Context, tenantID, deviceID int64, metrics map[string]float64, at time.Time) error {
	points := make([]*write.Point, 0, len(metrics))
	for parameter, value := range metrics {
		if err := validValue(value); err != nil {
			slog.Warn("timeseries.skip_malformed_value", "parameter", parameter, "error", err)
			continue
		}
		p := influxdb2.NewPoint(
			measurement,
			map[string]string{
				"tenant_id": strconv.FormatInt(tenantID, 10),
				"device_id": strconv.FormatInt(deviceID, 10),
				"parameter": parameter,
			},
			map[string]any{"value": value},
			at,
		)
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil
	}

	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		slog.Error("timeseries.write_error", "tenant_id", tenantID, "device_id", deviceID, "error", err)
		return nil
	}
	return nil
}

// Close releases the underlying InfluxDB client.
func (w *Writer) Close() {
	w.client.Close()
}

func validValue(v float64) error {
	if v != v { // NaN
		return fmt.Errorf("value is NaN")
	}
	return nil
}
