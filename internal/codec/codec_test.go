package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		wantSlug  string
		wantKey   string
		wantErr   error
	}{
		{"valid", "factories/vpc/devices/M01/telemetry", "vpc", "M01", nil},
		{"too few segments", "invalid/topic", "", "", domain.ErrInvalidTopic},
		{"too many segments", "factories/vpc/devices/M01/telemetry/extra", "", "", domain.ErrInvalidTopic},
		{"wrong first segment", "plants/vpc/devices/M01/telemetry", "", "", domain.ErrInvalidTopic},
		{"wrong third segment", "factories/vpc/machines/M01/telemetry", "", "", domain.ErrInvalidTopic},
		{"wrong fifth segment", "factories/vpc/devices/M01/status", "", "", domain.ErrInvalidTopic},
		{"empty slug", "factories//devices/M01/telemetry", "", "", domain.ErrInvalidTopic},
		{"empty device key", "factories/vpc/devices//telemetry", "", "", domain.ErrInvalidTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, key, err := ParseTopic(tt.topic)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, slug)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestParseTopic_RoundTrip(t *testing.T) {
	topic := "factories/vpc/devices/M01/telemetry"
	slug, key, err := ParseTopic(topic)
	require.NoError(t, err)
	assert.Equal(t, topic, RenderTopic(slug, key))
}

func TestParsePayload(t *testing.T) {
	t.Run("valid mixed int and float", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"timestamp":"2024-01-15T10:00:00Z","metrics":{"temperature":45.5,"pressure":101.3,"rpm":1500}}`))
		require.NoError(t, err)
		assert.Equal(t, 45.5, p.Metrics["temperature"])
		assert.Equal(t, float64(1500), p.Metrics["rpm"])
		assert.True(t, p.IntKeys["rpm"])
		assert.False(t, p.IntKeys["temperature"])
		require.NotNil(t, p.Timestamp)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"metrics":{"voltage":245.5}}`))
		require.NoError(t, err)
		assert.Nil(t, p.Timestamp)
	})

	t.Run("unparseable timestamp falls back to nil instead of rejecting the payload", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"timestamp":"not-a-date","metrics":{"voltage":245.5}}`))
		require.NoError(t, err)
		assert.Nil(t, p.Timestamp)
		assert.Equal(t, 245.5, p.Metrics["voltage"])
	})

	t.Run("empty metrics rejected", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"metrics":{}}`))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("missing metrics rejected", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"timestamp":"2024-01-15T10:00:00Z"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("non-numeric value rejected", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"metrics":{"status":"ok"}}`))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		_, err := ParsePayload([]byte(`invalid{{`))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("round trip preserves numeric equality", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"metrics":{"voltage":245.5}}`))
		require.NoError(t, err)
		assert.InDelta(t, 245.5, p.Metrics["voltage"], 1e-9)
	})
}
