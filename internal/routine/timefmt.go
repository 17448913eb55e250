package routine

import (
	"fmt"
	"math"
)

// LastHour is the latest hour shown in a time range.
const LastHour = 23

// FormatHour renders an hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// EndTime computes the end of a task starting at hour and lasting duration
// hours. The end hour is capped at LastHour; minutes are rounded.
func EndTime(hour int, duration float64) (int, int) {
	endMinutes := float64(hour)*60 + duration*60
	endHour := int(math.Floor(endMinutes / 60))
	endMinute := int(math.Round(math.Mod(endMinutes, 60)))
	if endHour > LastHour {
		endHour = LastHour
	}
	return endHour, endMinute
}

// FormatTimeRange renders "HH:00-HH:MM", e.g. (9, 1.5) -> "09:00-10:30".
func FormatTimeRange(hour int, duration float64) string {
	endHour, endMinute := EndTime(hour, duration)
	return fmt.Sprintf("%02d:00-%02d:%02d", hour, endHour, endMinute)
}

// FormatDuration renders a duration in hours the way the pickers label it.
func FormatDuration(duration float64) string {
	switch {
	case duration < 1:
		return fmt.Sprintf("%dmin", int(math.Round(duration*60)))
	case duration == math.Trunc(duration):
		return fmt.Sprintf("%dh", int(duration))
	default:
		return fmt.Sprintf("%gh", duration)
	}
}
