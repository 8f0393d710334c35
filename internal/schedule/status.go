package schedule

import (
	"fmt"
	"time"
)

// Status is a point-in-time read of the scheduler; computing it never
// mutates state.
type Status struct {
	Enabled       bool
	Running       bool
	ScheduledTime string
	Timezone      string
	NextRun       string
	CurrentTime   string
	Message       string
}

// Status reports the next trigger instant when the timer is live, or a
// human-readable reason it is not.
func (s *Scheduler) Status() Status {
	state := s.State()
	running := s.Running()

	st := Status{
		Enabled:       state.Enabled,
		Running:       running,
		ScheduledTime: fmt.Sprintf("%02d:%02d", state.Hour, state.Minute),
		Timezone:      state.Timezone,
	}

	if !state.Enabled {
		st.Message = "scheduler not enabled"
		return st
	}
	if !running {
		st.Message = "scheduler stopped"
		return st
	}

	loc, err := time.LoadLocation(state.Timezone)
	if err != nil {
		st.Message = fmt.Sprintf("invalid timezone: %v", err)
		return st
	}

	now := s.clock.Now().In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), state.Hour, state.Minute, 0, 0, loc)
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	const layout = "2006-01-02 15:04:05 MST"
	st.NextRun = next.Format(layout)
	st.CurrentTime = now.Format(layout)
	return st
}
