package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Schedule represents a parsed schedule: a one-shot timestamp, a fixed
// interval, or a cron expression evaluated with robfig/cron.
type Schedule struct {
	Kind     string // "at", "every", or "cron"
	CronExpr string
	Every    time.Duration
	At       time.Time
	Timezone string
}

// NewSchedule parses exactly one of a cron expression, an interval, or an
// absolute timestamp into a Schedule.
func NewSchedule(cronExpr string, every time.Duration, at, timezone string) (Schedule, error) {
	cronExpr = strings.TrimSpace(cronExpr)
	at = strings.TrimSpace(at)
	timezone = strings.TrimSpace(timezone)

	if cronExpr == "" && every == 0 && at == "" {
		return Schedule{}, fmt.Errorf("schedule is required")
	}

	sched := Schedule{CronExpr: cronExpr, Every: every, Timezone: timezone}

	if at != "" {
		parsed, err := parseAt(at, timezone)
		if err != nil {
			return Schedule{}, err
		}
		sched.At = parsed
		sched.Kind = "at"
		return sched, nil
	}
	if every > 0 {
		sched.Kind = "every"
		return sched, nil
	}
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return Schedule{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	sched.Kind = "cron"
	return sched, nil
}

// Next returns the next run time for the schedule strictly after now.
func (s Schedule) Next(now time.Time) (time.Time, bool, error) {
	switch s.Kind {
	case "at":
		if s.At.IsZero() {
			return time.Time{}, false, fmt.Errorf("at schedule missing timestamp")
		}
		if now.After(s.At) {
			return time.Time{}, false, nil
		}
		return s.At, true, nil
	case "every":
		if s.Every <= 0 {
			return time.Time{}, false, fmt.Errorf("every schedule missing duration")
		}
		return now.Add(s.Every), true, nil
	case "cron":
		if s.CronExpr == "" {
			return time.Time{}, false, fmt.Errorf("cron schedule missing expression")
		}
		loc := now.Location()
		if s.Timezone != "" {
			if tz, err := time.LoadLocation(s.Timezone); err == nil {
				loc = tz
			}
		}
		schedule, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse cron expression: %w", err)
		}
		next := schedule.Next(now.In(loc))
		return next, !next.IsZero(), nil
	default:
		return time.Time{}, false, fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
}

func parseAt(value, tz string) (time.Time, error) {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			if parsed, err := time.ParseInLocation(time.RFC3339, value, loc); err == nil {
				return parsed, nil
			}
			if parsed, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
				return parsed, nil
			}
		}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02 15:04", value); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid at schedule: %s", value)
}
