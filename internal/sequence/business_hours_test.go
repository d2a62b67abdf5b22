package sequence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/sequence"
)

func weekdayHours() model.WorkingHours {
	return model.WorkingHours{
		time.Monday:    {Start: "09:00", End: "17:00"},
		time.Tuesday:   {Start: "09:00", End: "17:00"},
		time.Wednesday: {Start: "09:00", End: "17:00"},
		time.Thursday:  {Start: "09:00", End: "17:00"},
		time.Friday:    {Start: "09:00", End: "17:00"},
	}
}

func TestAdjustToBusinessHours_EmptyScheduleUnchanged(t *testing.T) {
	at := time.Date(2026, 3, 14, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, at, sequence.AdjustToBusinessHours(at, nil))
}

func TestAdjustToBusinessHours_WithinWindowUnchanged(t *testing.T) {
	// Tuesday 14:00
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, at, sequence.AdjustToBusinessHours(at, weekdayHours()))
}

func TestAdjustToBusinessHours_BeforeStartSnapsToStart(t *testing.T) {
	// Tuesday 06:45
	at := time.Date(2026, 3, 10, 6, 45, 0, 0, time.UTC)

	adjusted := sequence.AdjustToBusinessHours(at, weekdayHours())

	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), adjusted)
}

func TestAdjustToBusinessHours_SaturdayMovesToMondayMorning(t *testing.T) {
	// Saturday 14:00
	at := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)

	adjusted := sequence.AdjustToBusinessHours(at, weekdayHours())

	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), adjusted)
	assert.Equal(t, time.Monday, adjusted.Weekday())
}

func TestAdjustToBusinessHours_AfterCloseMovesToNextWorkingDay(t *testing.T) {
	// Friday 18:00 skips the weekend entirely.
	at := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)

	adjusted := sequence.AdjustToBusinessHours(at, weekdayHours())

	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), adjusted)
}

func TestAdjustToBusinessHours_UsesEarlierStartOfNextDay(t *testing.T) {
	hours := model.WorkingHours{
		time.Monday:  {Start: "10:00", End: "18:00"},
		time.Tuesday: {Start: "08:00", End: "16:00"},
	}

	// Monday 19:00 lands on Tuesday at Tuesday's own start, not Monday's.
	at := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)

	adjusted := sequence.AdjustToBusinessHours(at, hours)

	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), adjusted)
}

func TestAdjustToBusinessHours_SingleWorkingDayWrapsToNextWeek(t *testing.T) {
	hours := model.WorkingHours{
		time.Monday: {Start: "09:00", End: "17:00"},
	}

	// Monday 18:00 has to walk all the way around to the following Monday.
	at := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)

	adjusted := sequence.AdjustToBusinessHours(at, hours)

	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), adjusted)
	assert.Equal(t, time.Monday, adjusted.Weekday())
}

func TestAdjustToBusinessHours_UnusableScheduleReturnsInput(t *testing.T) {
	hours := model.WorkingHours{
		time.Monday: {Start: "nine", End: "five"},
	}

	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, at, sequence.AdjustToBusinessHours(at, hours))
}
