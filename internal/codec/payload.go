package codec

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// Payload is the decoded telemetry message: a non-empty map of
// parameter key to numeric value, and an optional timestamp.
type Payload struct {
	Timestamp *time.Time
	Metrics   map[string]float64
	// IntKeys records which metric keys arrived as a JSON integer
	// literal (no fractional part, no exponent) rather than a float,
	// so the parameter registry can derive the correct declared type.
	IntKeys map[string]bool
}

// ParsePayload validates and decodes a telemetry message body. metrics
// must be present, non-empty, and every value numeric; anything else
// returns ErrInvalidPayload. json.Number lets the codec distinguish
// an int-shaped literal ("1500") from a float-shaped one ("45.5")
// without losing precision, matching the original's int/float
// distinction for parameter data-type derivation.
func ParsePayload(body []byte) (Payload, error) {
	var raw struct {
		Timestamp json.RawMessage         `json:"timestamp"`
		Metrics   map[string]json.Number `json:"metrics"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Payload{}, domain.ErrInvalidPayload
	}
	if len(raw.Metrics) == 0 {
		return Payload{}, domain.ErrInvalidPayload
	}
	timestamp := parseTimestamp(raw.Timestamp)

	metrics := make(map[string]float64, len(raw.Metrics))
	intKeys := make(map[string]bool, len(raw.Metrics))
	for key, num := range raw.Metrics {
		f, err := num.Float64()
		if err != nil {
			return Payload{}, domain.ErrInvalidPayload
		}
		metrics[key] = f
		if _, err := num.Int64(); err == nil {
			intKeys[key] = true
		}
	}

	return Payload{Timestamp: timestamp, Metrics: metrics, IntKeys: intKeys}, nil
}

// parseTimestamp decodes the optional timestamp field leniently: an
// absent field and an unparseable one are treated the same way, both
// yielding nil so the caller substitutes the current wall-clock UTC
// instant, rather than rejecting an otherwise-valid metrics payload
// over a malformed timestamp string.
func parseTimestamp(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
