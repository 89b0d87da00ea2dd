// Package ruleengine implements C8, the Rule Engine Task: schedule and
// cooldown gating, condition evaluation, and Alert materialization for
// one (tenant, device) telemetry sample.
package ruleengine

import (
	"time"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// scheduled reports whether rule is eligible to fire at ts, evaluated
// in the tenant's timezone. Any parse failure of the schedule config
// fails open: the rule is treated as scheduled rather than silently
// suppressed by bad data.
func scheduled(rule *domain.Rule, ts time.Time, loc *time.Location) bool {
	switch rule.ScheduleType {
	case domain.ScheduleAlways, "":
		return true

	case domain.ScheduleTimeWindow:
		cfg, err := rule.ParseTimeWindow()
		if err != nil {
			return true
		}
		return timeWindowMatch(cfg, ts.In(loc))

	case domain.ScheduleDateRange:
		cfg, err := rule.ParseDateRange()
		if err != nil {
			return true
		}
		return dateRangeMatch(cfg, ts.In(loc))

	default:
		return true
	}
}

func timeWindowMatch(cfg *domain.TimeWindowSchedule, local time.Time) bool {
	start, err := time.Parse("15:04", cfg.StartTime)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", cfg.EndTime)
	if err != nil {
		return true
	}

	days := cfg.Days
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5, 6, 7}
	}
	if !containsDay(days, isoWeekday(local)) {
		return false
	}

	nowMinutes := local.Hour()*60 + local.Minute()
	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()
	return nowMinutes >= startMinutes && nowMinutes <= endMinutes
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func dateRangeMatch(cfg *domain.DateRangeSchedule, local time.Time) bool {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return true
	}
	end, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return true
	}
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

// inCooldown reports whether rule is suppressed for deviceID as of ts,
// given the Cooldown row found (nil if absent).
func inCooldown(rule *domain.Rule, cooldown *domain.Cooldown, ts time.Time) bool {
	if rule.CooldownMinutes == 0 {
		return false
	}
	if cooldown == nil {
		return false
	}
	return ts.Sub(cooldown.LastTriggered) < time.Duration(rule.CooldownMinutes)*time.Minute
}
