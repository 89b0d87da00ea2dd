package analytics

import (
	"math"
	"sort"

	"github.com/orchestrix/telemetry-core/internal/core/port"
)

// paramStats is the min/max/avg/stddev summary over one parameter's
// samples, the Go-native substitute for the source project's pandas
// describe() call.
type paramStats struct {
	Min, Max, Avg, StdDev float64
	Count                 int
}

// Stats is the exported view of paramStats, used by the reporting
// package to build its per-device telemetry summary table.
type Stats struct {
	Min, Max, Avg float64
	Count         int
}

// SummarizeByDeviceParameter groups points by device then parameter,
// the shape get_report_data's telemetry_summary dict uses.
func SummarizeByDeviceParameter(points []port.TimeSeriesPoint) map[int64]map[string]Stats {
	byDevice := map[int64][]port.TimeSeriesPoint{}
	for _, p := range points {
		byDevice[p.DeviceID] = append(byDevice[p.DeviceID], p)
	}
	out := make(map[int64]map[string]Stats, len(byDevice))
	for deviceID, devicePoints := range byDevice {
		params := summarizeByParameter(devicePoints)
		paramOut := make(map[string]Stats, len(params))
		for name, s := range params {
			paramOut[name] = Stats{Min: s.Min, Max: s.Max, Avg: s.Avg, Count: s.Count}
		}
		out[deviceID] = paramOut
	}
	return out
}

func summarizeByParameter(points []port.TimeSeriesPoint) map[string]paramStats {
	sums := map[string][]float64{}
	for _, p := range points {
		sums[p.Parameter] = append(sums[p.Parameter], p.Value)
	}
	out := make(map[string]paramStats, len(sums))
	for param, values := range sums {
		out[param] = computeStats(values)
	}
	return out
}

func computeStats(values []float64) paramStats {
	if len(values) == 0 {
		return paramStats{}
	}
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - avg
		variance += d * d
	}
	variance /= float64(len(values))

	return paramStats{Min: min, Max: max, Avg: avg, StdDev: math.Sqrt(variance), Count: len(values)}
}

// anomaly is one out-of-band sample: z-score beyond the 3-sigma
// threshold run_anomaly_detection's Isolation Forest would flag. The
// example pack carries no Go ML library (Isolation Forest/Prophet are
// scikit-learn/Prophet, Python-only), so this substitutes a plain
// z-score threshold over the same per-parameter statistics — see
// DESIGN.md.
type anomaly struct {
	DeviceID  int64   `json:"device_id"`
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score"`
	Time      string  `json:"time"`
}

const anomalyZThreshold = 3.0
const maxAnomalies = 50

func detectAnomalies(points []port.TimeSeriesPoint, stats map[string]paramStats) []anomaly {
	var found []anomaly
	for _, p := range points {
		s, ok := stats[p.Parameter]
		if !ok || s.StdDev == 0 {
			continue
		}
		z := (p.Value - s.Avg) / s.StdDev
		if math.Abs(z) < anomalyZThreshold {
			continue
		}
		found = append(found, anomaly{
			DeviceID:  p.DeviceID,
			Parameter: p.Parameter,
			Value:     p.Value,
			ZScore:    z,
			Time:      p.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	sort.Slice(found, func(i, j int) bool { return math.Abs(found[i].ZScore) > math.Abs(found[j].ZScore) })
	if len(found) > maxAnomalies {
		found = found[:maxAnomalies]
	}
	return found
}
