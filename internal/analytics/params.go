package analytics

import (
	"fmt"
	"time"
)

type jobParams struct {
	deviceIDs   []int64
	from, to    time.Time
	jobType     string
	horizonDays int
}

// parseJobParams reads the analytics_job.py-shaped fields
// (device_ids, date_range_start/end, job_type) out of the
// map[string]any a Temporal activity receives, tolerating the
// float64/[]interface{} shapes its JSON data converter produces.
func parseJobParams(params map[string]any) (jobParams, error) {
	deviceIDs, err := toInt64Slice(params["device_ids"])
	if err != nil {
		return jobParams{}, fmt.Errorf("device_ids: %w", err)
	}
	from, err := toTime(params["date_range_start"])
	if err != nil {
		return jobParams{}, fmt.Errorf("date_range_start: %w", err)
	}
	to, err := toTime(params["date_range_end"])
	if err != nil {
		return jobParams{}, fmt.Errorf("date_range_end: %w", err)
	}
	jobType, _ := params["job_type"].(string)

	horizon := 7
	if h, ok := params["horizon_days"]; ok {
		if f, ok := h.(float64); ok {
			horizon = int(f)
		}
	}

	return jobParams{deviceIDs: deviceIDs, from: from, to: to, jobType: jobType, horizonDays: horizon}, nil
}

func toInt64Slice(v any) ([]int64, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %T", item)
		}
		out = append(out, int64(f))
	}
	return out, nil
}

func toTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("expected an RFC3339 string, got %T", v)
	}
	return time.Parse(time.RFC3339, s)
}
