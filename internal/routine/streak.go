package routine

import "time"

// MaxStreakDays caps how far back the streak walk looks.
const MaxStreakDays = 365

// ComputeStreak counts consecutive fully completed days ending before or on
// today. Today never breaks the chain: if it has no tasks or open tasks it is
// skipped, and only earlier days can end the run.
func ComputeStreak(today time.Time, tasksFor MaterializeFunc) int {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	count := 0
	for i := 0; i < MaxStreakDays; i++ {
		date := FormatDate(start.AddDate(0, 0, -i))
		tasks := tasksFor(date)
		if len(tasks) == 0 {
			if i == 0 {
				continue
			}
			break
		}
		if AllCompleted(tasks) {
			count++
			continue
		}
		if i == 0 {
			continue
		}
		break
	}
	return count
}
