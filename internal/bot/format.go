package bot

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"routine-tracker/internal/routine"
	"routine-tracker/internal/service"
)

func formatDay(date, today string, tasks []routine.DayTask, cats map[string]routine.CategoryConfig) string {
	var builder strings.Builder
	heading := date
	if t, err := routine.ParseDate(date); err == nil {
		heading = t.Format("Mon, 02 Jan 2006")
	}
	if date == today {
		heading += " · today"
	}
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b>\n\n", heading))

	if len(tasks) == 0 {
		builder.WriteString("Nothing planned.")
		return builder.String()
	}
	done := 0
	for _, task := range tasks {
		if task.Completed {
			done++
		}
		builder.WriteString(service.FormatDayTask(task, cats))
	}
	builder.WriteString(fmt.Sprintf("\n%d/%d done", done, len(tasks)))
	if routine.AllCompleted(tasks) {
		builder.WriteString(" 🎉")
	}
	return builder.String()
}

func formatTemplates(templates []routine.Template, cats map[string]routine.CategoryConfig, today string) string {
	var builder strings.Builder
	builder.WriteString("♻️ <b>Recurring tasks</b>\n\n")
	for _, t := range templates {
		label := routine.LookupCategory(cats, t.Category).Label
		hour, duration := routine.DefaultHour, routine.DefaultDuration
		if t.Hour != nil {
			hour = *t.Hour
		}
		if t.Duration != nil {
			duration = *t.Duration
		}
		builder.WriteString(fmt.Sprintf("<b>%s</b> <i>(%s)</i>\n", escape(normalizeTitle(t.Title)), escape(label)))
		builder.WriteString(fmt.Sprintf("   🔄 %s · %s\n", routine.FormatRepeatDays(t.RepeatDays), routine.FormatTimeRange(hour, duration)))
		if next, ok, err := routine.NextOccurrence(t, today); err == nil && ok {
			builder.WriteString(fmt.Sprintf("   ⏭ next: %s\n", next))
		}
	}
	return strings.TrimSpace(builder.String())
}

// upcomingOneOffs keeps one-offs dated today or later, soonest first.
func upcomingOneOffs(all []routine.OneOff, today string) []routine.OneOff {
	var out []routine.OneOff
	for _, o := range all {
		if o.Date >= today {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func formatOneOffs(oneoffs []routine.OneOff, cats map[string]routine.CategoryConfig) string {
	var builder strings.Builder
	builder.WriteString("🗓 <b>Upcoming tasks</b>\n\n")
	for _, o := range oneoffs {
		hour, duration := routine.DefaultHour, routine.DefaultDuration
		if o.Hour != nil {
			hour = *o.Hour
		}
		if o.Duration != nil {
			duration = *o.Duration
		}
		label := routine.LookupCategory(cats, o.Category).Label
		builder.WriteString(fmt.Sprintf("%s <code>%s</code> %s <i>(%s)</i>\n",
			o.Date, routine.FormatTimeRange(hour, duration), escape(normalizeTitle(o.Title)), escape(label)))
	}
	return strings.TrimSpace(builder.String())
}

func formatStats(stats routine.Summary) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📈 <b>Last %d days</b>\n\n", routine.StatsWindow))
	for _, day := range stats.Days {
		builder.WriteString(fmt.Sprintf("<code>%s %s %s</code> %d/%d\n",
			day.Weekday.String()[:3], day.Date[5:], progressBar(day.Rate, 8), day.Completed, day.Total))
	}
	builder.WriteString(fmt.Sprintf("\nAverage: <b>%d%%</b> (%d of %d tasks)", stats.AverageRate, stats.TotalCompleted, stats.TotalTasks))
	return builder.String()
}

func progressBar(rate float64, width int) string {
	filled := int(math.Round(rate * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}

var errBadInput = errors.New("unrecognized input")

// parseDateInput accepts YYYY-MM-DD or today, tomorrow, yesterday relative to today.
func parseDateInput(text, today string) (string, error) {
	value := strings.TrimSpace(strings.ToLower(text))
	switch value {
	case "today":
		return today, nil
	case "tomorrow":
		return routine.AddDays(today, 1)
	case "yesterday":
		return routine.AddDays(today, -1)
	}
	if _, err := routine.ParseDate(value); err != nil {
		return "", err
	}
	return value, nil
}

// parseHourInput accepts "7", "07" or "07:00".
func parseHourInput(text string) (int, error) {
	value := strings.TrimSpace(text)
	if h, m, ok := strings.Cut(value, ":"); ok {
		if m != "00" {
			return 0, errBadInput
		}
		value = h
	}
	hour, err := strconv.Atoi(value)
	if err != nil || hour < 0 || hour > routine.LastHour {
		return 0, errBadInput
	}
	return hour, nil
}

// parseDurationInput reads hours from "1.5", "1.5h", "30min" or a Go duration like "1h30m".
func parseDurationInput(text string) (float64, error) {
	value := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(text)), ",", ".")
	var hours float64
	var err error
	switch {
	case strings.HasSuffix(value, "min"):
		var minutes float64
		minutes, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, "min")), 64)
		hours = minutes / 60
	case strings.HasSuffix(value, "h"):
		hours, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, "h")), 64)
	default:
		if d, perr := time.ParseDuration(value); perr == nil {
			hours = d.Hours()
		} else {
			hours, err = strconv.ParseFloat(value, 64)
		}
	}
	if err != nil || hours <= 0 || hours > service.MaxDuration || math.IsNaN(hours) {
		return 0, errBadInput
	}
	return hours, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
