package routine

import (
	"math"
	"time"
)

// StatsWindow is the number of days covered by WeekStats.
const StatsWindow = 7

// DayStats summarises completion for one date.
type DayStats struct {
	Date      string
	Weekday   time.Weekday
	Total     int
	Completed int
	Rate      float64
}

// Summary aggregates a window of DayStats.
type Summary struct {
	Days           []DayStats
	TotalTasks     int
	TotalCompleted int
	// AverageRate is a whole percentage in [0,100].
	AverageRate int
}

// StatsFor counts the tasks of a single date.
func StatsFor(date string, tasks []DayTask) DayStats {
	s := DayStats{Date: date, Total: len(tasks)}
	if wd, err := Weekday(date); err == nil {
		s.Weekday = wd
	}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Rate = float64(s.Completed) / float64(s.Total)
	}
	return s
}

// WeekStats returns the last StatsWindow days ending today, oldest first.
func WeekStats(today time.Time, tasksFor MaterializeFunc) Summary {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var sum Summary
	for i := StatsWindow - 1; i >= 0; i-- {
		date := FormatDate(start.AddDate(0, 0, -i))
		day := StatsFor(date, tasksFor(date))
		sum.Days = append(sum.Days, day)
		sum.TotalTasks += day.Total
		sum.TotalCompleted += day.Completed
	}
	if sum.TotalTasks > 0 {
		sum.AverageRate = int(math.Round(float64(sum.TotalCompleted) / float64(sum.TotalTasks) * 100))
	}
	return sum
}
