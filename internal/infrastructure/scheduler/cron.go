package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts six fields: second minute hour day-of-month month day-of-week.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronSchedule is a Schedule backed by a seconds-resolution cron expression.
// Examples:
//   - "0 0 1 * * *"  - every day at 01:00:00
//   - "20 0 1 * * *" - every day at 01:00:20
//   - "@hourly"
type CronSchedule struct {
	raw   string
	sched cron.Schedule
	loc   *time.Location
}

// ParseCron parses expr. Next is evaluated in loc (UTC when nil).
func ParseCron(expr string, loc *time.Location) (*CronSchedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronSchedule{raw: expr, sched: sched, loc: loc}, nil
}

// MustParseCron is ParseCron that panics on error.
func MustParseCron(expr string, loc *time.Location) *CronSchedule {
	s, err := ParseCron(expr, loc)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the first activation strictly after t.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.sched.Next(t.In(s.loc))
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.raw
}
