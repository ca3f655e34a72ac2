package jobqueue

import (
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog/log"
)

// CronSchedule is a river.PeriodicSchedule driven by a cron expression.
type CronSchedule struct {
	expr     string
	fallback time.Duration
}

// NewCronSchedule returns a schedule for expr. Callers validate expr first;
// if evaluation still fails, the schedule falls back to a fixed interval.
func NewCronSchedule(expr string) *CronSchedule {
	return &CronSchedule{expr: expr, fallback: time.Hour}
}

// Next returns the first tick strictly after current.
func (s *CronSchedule) Next(current time.Time) time.Time {
	next, err := gronx.NextTickAfter(s.expr, current, false)
	if err != nil {
		log.Error().Err(err).Str("schedule", s.expr).Msg("Failed to evaluate export schedule")
		return current.Add(s.fallback)
	}
	return next
}
