// Package routine turns recurring templates, one-off tasks and the
// completion ledger into per-day task lists, streaks and stats.
package routine

import (
	"sort"
	"time"
)

// Defaults applied to legacy records saved before hour and duration existed.
const (
	DefaultHour     = 9
	DefaultDuration = 1.0
)

// Template is a recurring task definition.
type Template struct {
	ID         string
	Title      string
	Category   string
	RepeatDays []time.Weekday
	Hour       *int
	Duration   *float64
}

// RepeatsOn reports whether the template spawns an instance on wd.
func (t Template) RepeatsOn(wd time.Weekday) bool {
	for _, d := range t.RepeatDays {
		if d == wd {
			return true
		}
	}
	return false
}

// OneOff is a task bound to exactly one calendar date.
type OneOff struct {
	ID       string
	Title    string
	Category string
	Date     string
	Hour     *int
	Duration *float64
}

// DayTask is a concrete task instance for one date. It is derived on every
// query and never stored.
type DayTask struct {
	ID         string
	SourceKind SourceKind
	SourceID   string
	Title      string
	Category   string
	Completed  bool
	Date       string
	Hour       int
	Duration   float64
}

// Key returns the ledger key of this instance.
func (t DayTask) Key() string {
	return MakeCompletionKey(t.Date, t.SourceKind, t.SourceID)
}

// TimeRange formats the instance's start and end for display.
func (t DayTask) TimeRange() string {
	return FormatTimeRange(t.Hour, t.Duration)
}

// Materialize builds the ordered task list for date from templates active on
// its weekday and one-offs dated on it, with completion looked up in ledger.
// Templates come before one-offs; the result is stable-sorted by hour.
func Materialize(date string, templates []Template, oneoffs []OneOff, ledger Ledger) ([]DayTask, error) {
	wd, err := Weekday(date)
	if err != nil {
		return nil, err
	}

	tasks := make([]DayTask, 0, len(templates)+len(oneoffs))
	for _, tpl := range templates {
		if !tpl.RepeatsOn(wd) {
			continue
		}
		tasks = append(tasks, DayTask{
			ID:         string(KindTemplate) + ":" + tpl.ID,
			SourceKind: KindTemplate,
			SourceID:   tpl.ID,
			Title:      tpl.Title,
			Category:   tpl.Category,
			Completed:  ledger.Completed(date, KindTemplate, tpl.ID),
			Date:       date,
			Hour:       hourOrDefault(tpl.Hour),
			Duration:   durationOrDefault(tpl.Duration),
		})
	}
	for _, o := range oneoffs {
		if o.Date != date {
			continue
		}
		tasks = append(tasks, DayTask{
			ID:         string(KindOneOff) + ":" + o.ID,
			SourceKind: KindOneOff,
			SourceID:   o.ID,
			Title:      o.Title,
			Category:   o.Category,
			Completed:  ledger.Completed(date, KindOneOff, o.ID),
			Date:       date,
			Hour:       hourOrDefault(o.Hour),
			Duration:   durationOrDefault(o.Duration),
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Hour < tasks[j].Hour
	})
	return tasks, nil
}

// MaterializeFunc returns the task list for a YYYY-MM-DD date.
type MaterializeFunc func(date string) []DayTask

// Snapshot is an immutable view of the stores used to answer many
// per-date queries without going back to storage.
type Snapshot struct {
	Templates []Template
	OneOffs   []OneOff
	Ledger    Ledger
}

// TasksFor materializes one date. Invalid dates yield no tasks.
func (s Snapshot) TasksFor(date string) []DayTask {
	tasks, err := Materialize(date, s.Templates, s.OneOffs, s.Ledger)
	if err != nil {
		return nil
	}
	return tasks
}

// AllCompleted reports whether tasks is non-empty and fully done.
func AllCompleted(tasks []DayTask) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

func hourOrDefault(h *int) int {
	if h == nil {
		return DefaultHour
	}
	return *h
}

func durationOrDefault(d *float64) float64 {
	if d == nil {
		return DefaultDuration
	}
	return *d
}
