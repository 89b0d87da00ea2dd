package ruleeval

import (
	"fmt"
	"strings"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// BuildAlertMessage renders the humanized message format from §4.8:
// "[<rule.name>] <leaf> AND <leaf> AND ...", where each leaf renders
// as "<parameter> (<actual>) <operator> <threshold>". Only top-level
// matching leaves are included; nested sub-trees and non-matching
// leaves are omitted. The message is advisory only.
func BuildAlertMessage(ruleName string, tree domain.Condition, metrics map[string]float64) string {
	leaves := MatchingLeaves(tree, metrics)
	parts := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		actual := metrics[leaf.Parameter]
		parts = append(parts, fmt.Sprintf("%s (%s) %s %s",
			leaf.Parameter, formatNumber(actual), leaf.Operator, formatNumber(leaf.Value)))
	}
	return fmt.Sprintf("[%s] %s", ruleName, strings.Join(parts, " AND "))
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
