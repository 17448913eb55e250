package service

import (
	"time"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

func templateFromModel(m model.Template) routine.Template {
	days := make([]time.Weekday, 0, len(m.RepeatDays))
	for _, d := range m.RepeatDays {
		days = append(days, time.Weekday(d))
	}
	return routine.Template{
		ID:         m.ID,
		Title:      m.Title,
		Category:   m.Category,
		RepeatDays: routine.NormalizeRepeatDays(days),
		Hour:       m.Hour,
		Duration:   m.Duration,
	}
}

func oneOffFromModel(m model.OneOff) routine.OneOff {
	return routine.OneOff{
		ID:       m.ID,
		Title:    m.Title,
		Category: m.Category,
		Date:     m.Date,
		Hour:     m.Hour,
		Duration: m.Duration,
	}
}

func weekdaysToInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range routine.NormalizeRepeatDays(days) {
		out = append(out, int(d))
	}
	return out
}
