package ruleeval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

func leaf(parameter, operator string, value float64) domain.Condition {
	return domain.Condition{Parameter: parameter, Operator: operator, Value: value}
}

func internal(operator string, children ...domain.Condition) domain.Condition {
	return domain.Condition{Operator: operator, Conditions: children}
}

func TestEvaluate_Leaf(t *testing.T) {
	tests := []struct {
		name     string
		tree     domain.Condition
		metrics  map[string]float64
		expected bool
	}{
		{"gt true", leaf("voltage", "gt", 100), map[string]float64{"voltage": 245.5}, true},
		{"gt false", leaf("voltage", "gt", 300), map[string]float64{"voltage": 245.5}, false},
		{"lt true", leaf("pressure", "lt", 50), map[string]float64{"pressure": 10}, true},
		{"gte equal", leaf("rpm", "gte", 1500), map[string]float64{"rpm": 1500}, true},
		{"lte equal", leaf("rpm", "lte", 1500), map[string]float64{"rpm": 1500}, true},
		{"eq true", leaf("temp", "eq", 60), map[string]float64{"temp": 60}, true},
		{"neq true", leaf("temp", "neq", 61), map[string]float64{"temp": 60}, true},
		{"neq false", leaf("temp", "neq", 60), map[string]float64{"temp": 60}, false},
		{"missing parameter", leaf("humidity", "gt", 50), map[string]float64{"temp": 60}, false},
		{"unknown operator", leaf("temp", "between", 60), map[string]float64{"temp": 60}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.tree, tt.metrics))
		})
	}
}

func TestEvaluate_NaN(t *testing.T) {
	metrics := map[string]float64{"temp": math.NaN()}
	ops := []string{"gt", "lt", "gte", "lte", "eq", "neq"}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			assert.False(t, Evaluate(leaf("temp", op, 60), metrics))
		})
	}
	t.Run("nan threshold", func(t *testing.T) {
		assert.False(t, Evaluate(leaf("temp", "eq", float64(math.NaN())), map[string]float64{"temp": 60}))
	})
}

func TestEvaluate_InternalNodes(t *testing.T) {
	tests := []struct {
		name     string
		tree     domain.Condition
		metrics  map[string]float64
		expected bool
	}{
		{
			"AND all true",
			internal("AND", leaf("temp", "gt", 50), leaf("pressure", "lt", 110)),
			map[string]float64{"temp": 60, "pressure": 100},
			true,
		},
		{
			"AND short circuits on first false",
			internal("AND", leaf("temp", "gt", 50), leaf("pressure", "lt", 50)),
			map[string]float64{"temp": 60, "pressure": 100},
			false,
		},
		{
			"OR one true",
			internal("OR", leaf("pressure", "lt", 50), leaf("humidity", "gt", 80)),
			map[string]float64{"pressure": 100, "humidity": 90},
			true,
		},
		{"AND empty conditions", internal("AND"), map[string]float64{}, false},
		{"OR empty conditions", internal("OR"), map[string]float64{}, false},
		{
			"unknown internal operator",
			internal("XOR", leaf("temp", "gt", 50)),
			map[string]float64{"temp": 60},
			false,
		},
		{
			"nested AND/OR matches",
			internal("AND",
				leaf("temp", "gt", 50),
				internal("OR", leaf("pressure", "lt", 50), leaf("humidity", "gt", 80)),
			),
			map[string]float64{"temp": 60, "pressure": 100, "humidity": 90},
			true,
		},
		{
			"nested AND/OR does not match",
			internal("AND",
				leaf("temp", "gt", 50),
				internal("OR", leaf("pressure", "lt", 50), leaf("humidity", "gt", 80)),
			),
			map[string]float64{"temp": 60, "pressure": 100, "humidity": 70},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.tree, tt.metrics))
		})
	}
}

func TestEvaluate_Totality(t *testing.T) {
	// A tree with an unknown leaf operator still returns a boolean and never panics.
	tree := internal("AND", leaf("a", "gt", 1), leaf("b", "unknown-op", 2))
	assert.NotPanics(t, func() {
		Evaluate(tree, map[string]float64{"a": 5, "b": 5})
	})
}

func TestBuildAlertMessage(t *testing.T) {
	tree := internal("AND", leaf("voltage", "gt", 100))
	msg := BuildAlertMessage("High Voltage", tree, map[string]float64{"voltage": 245.5})
	assert.Equal(t, "[High Voltage] voltage (245.5) gt 100", msg)
}

func TestBuildAlertMessage_OmitsNestedAndNonMatching(t *testing.T) {
	tree := internal("AND",
		leaf("temp", "gt", 50),
		leaf("pressure", "lt", 50), // does not match, omitted
		internal("OR", leaf("humidity", "gt", 80)), // nested, omitted
	)
	metrics := map[string]float64{"temp": 60, "pressure": 100, "humidity": 90}
	msg := BuildAlertMessage("Combo", tree, metrics)
	assert.Equal(t, "[Combo] temp (60) gt 50", msg)
}
