package reporting

import (
	"fmt"
	"time"
)

type reportParams struct {
	deviceIDs []int64
	from, to  time.Time
	title     string
}

// parseReportParams reads the report.py-shaped fields (device_ids,
// date_range_start/end, title) out of the activity's params map.
func parseReportParams(params map[string]any) (reportParams, error) {
	deviceIDs, err := toInt64Slice(params["device_ids"])
	if err != nil {
		return reportParams{}, fmt.Errorf("device_ids: %w", err)
	}
	from, err := toTime(params["date_range_start"])
	if err != nil {
		return reportParams{}, fmt.Errorf("date_range_start: %w", err)
	}
	to, err := toTime(params["date_range_end"])
	if err != nil {
		return reportParams{}, fmt.Errorf("date_range_end: %w", err)
	}
	title, _ := params["title"].(string)
	if title == "" {
		title = "Factory Operations Report"
	}
	return reportParams{deviceIDs: deviceIDs, from: from, to: to, title: title}, nil
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
