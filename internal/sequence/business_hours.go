package sequence

import (
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

// maxAdjustIterations bounds the walk so a schedule with no enabled day
// cannot loop forever. The worst valid case is a single working day with t
// past its close: one iteration to step off the starting day plus seven more
// to come back around to it.
const maxAdjustIterations = 8

// AdjustToBusinessHours snaps t into the next working window. Days absent
// from the schedule are skipped to 09:00 the next day; a time before the
// day's start snaps forward to the start; a time at or past the end moves to
// the next day's start. A schedule with no usable day within a week returns
// t unchanged.
func AdjustToBusinessHours(t time.Time, hours model.WorkingHours) time.Time {
	if len(hours) == 0 {
		return t
	}

	current := t
	for i := 0; i < maxAdjustIterations; i++ {
		day, ok := hours[current.Weekday()]
		if !ok {
			current = nextDayAt(current, 9, 0)
			continue
		}

		start, err1 := parseClock(day.Start)
		end, err2 := parseClock(day.End)
		if err1 != nil || err2 != nil {
			current = nextDayAt(current, 9, 0)
			continue
		}

		dayStart := time.Date(current.Year(), current.Month(), current.Day(),
			start.hour, start.minute, 0, 0, current.Location())
		dayEnd := time.Date(current.Year(), current.Month(), current.Day(),
			end.hour, end.minute, 0, 0, current.Location())

		if current.Before(dayStart) {
			return dayStart
		}
		if !current.Before(dayEnd) {
			// Midnight next day; the next iteration snaps to that day's start.
			current = nextDayAt(current, 0, 0)
			continue
		}

		return current
	}

	return t
}

type clock struct {
	hour   int
	minute int
}

func parseClock(s string) (clock, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return clock{}, err
	}
	return clock{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func nextDayAt(t time.Time, hour, minute int) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, t.Location())
}
