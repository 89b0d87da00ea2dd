package timeseries

import (
	"math"
	"testing"
)

func TestValidValue(t *testing.T) {
	if err := validValue(45.5); err != nil {
		t.Fatalf("expected 45.5 to be valid, got %v", err)
	}
	if err := validValue(math.NaN()); err == nil {
		t.Fatal("expected NaN to be rejected")
	}
}
