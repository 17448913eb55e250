package routine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Rule builds the weekly recurrence of a template starting at dtstart.
func (t Template) Rule(dtstart time.Time) (*rrule.RRule, error) {
	days := NormalizeRepeatDays(t.RepeatDays)
	if len(days) == 0 {
		return nil, fmt.Errorf("template %s has no repeat days", t.ID)
	}
	byDay := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byDay = append(byDay, rruleWeekdays[d])
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   dtstart,
	})
}

// NextOccurrence returns the first date on or after from (YYYY-MM-DD) on
// which the template spawns a task. ok is false when it never repeats.
func NextOccurrence(t Template, from string) (string, bool, error) {
	start, err := ParseDate(from)
	if err != nil {
		return "", false, err
	}
	if len(t.RepeatDays) == 0 {
		return "", false, nil
	}
	rule, err := t.Rule(start)
	if err != nil {
		return "", false, err
	}
	next := rule.After(start, true)
	if next.IsZero() {
		return "", false, nil
	}
	return FormatDate(next), true, nil
}

// NormalizeRepeatDays sorts and de-duplicates weekdays, dropping out-of-range values.
func NormalizeRepeatDays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseRepeatDays accepts a comma or space separated list of weekday numbers
// (0=Sunday) or names ("mon", "friday"), plus the shortcuts "daily",
// "weekdays" and "weekends".
func ParseRepeatDays(raw string) ([]time.Weekday, error) {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no repeat days given")
	}

	var days []time.Weekday
	for _, f := range fields {
		switch f {
		case "daily", "everyday":
			for d := time.Sunday; d <= time.Saturday; d++ {
				days = append(days, d)
			}
			continue
		case "weekdays":
			for d := time.Monday; d <= time.Friday; d++ {
				days = append(days, d)
			}
			continue
		case "weekends":
			days = append(days, time.Saturday, time.Sunday)
			continue
		}
		if wd, ok := dayNames[f]; ok {
			days = append(days, wd)
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", f)
		}
		days = append(days, time.Weekday(n))
	}
	return NormalizeRepeatDays(days), nil
}

// FormatRepeatDays renders weekdays as "Mon, Wed, Fri".
func FormatRepeatDays(days []time.Weekday) string {
	days = NormalizeRepeatDays(days)
	if len(days) == 7 {
		return "every day"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}
