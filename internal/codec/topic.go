// Package codec implements C1: parsing broker topics into
// (tenant-slug, device-key) and validating telemetry payloads. The
// codec is pure — no I/O, no hidden state.
package codec

import (
	"strings"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// ParseTopic parses a broker topic of the form
// "factories/<slug>/devices/<key>/telemetry": five slash-delimited
// segments, literal first/third/fifth, non-empty second and fourth.
// Any deviation returns ErrInvalidTopic.
func ParseTopic(topic string) (slug, deviceKey string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 {
		return "", "", domain.ErrInvalidTopic
	}
	if parts[0] != "factories" || parts[2] != "devices" || parts[4] != "telemetry" {
		return "", "", domain.ErrInvalidTopic
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", domain.ErrInvalidTopic
	}
	return parts[1], parts[3], nil
}

// RenderTopic is the inverse of ParseTopic, used by the round-trip
// test in §8.
func RenderTopic(slug, deviceKey string) string {
	return "factories/" + slug + "/devices/" + deviceKey + "/telemetry"
}
