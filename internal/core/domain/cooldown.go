package domain

import "time"

// Cooldown is keyed by the composite primary key (RuleID, DeviceID).
// One row exists per (rule, device) the rule has ever fired for; it is
// never deleted by the core.
type Cooldown struct {
	RuleID        int64
	DeviceID      int64
	LastTriggered time.Time
}

// Elapsed reports how long has passed since LastTriggered, as of now.
func (c *Cooldown) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.LastTriggered)
}
