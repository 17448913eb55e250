package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"routine-tracker/internal/routine"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	planner    *PlannerService
	categories *CategoryService
}

func NewReminderService(planner *PlannerService, categories *CategoryService) *ReminderService {
	return &ReminderService{planner: planner, categories: categories}
}

// DailySummary renders today's routine as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, now time.Time) (string, error) {
	overview, err := s.planner.Overview(ctx, now)
	if err != nil {
		return "", err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return "", err
	}
	return FormatOverview(overview, cats), nil
}

// FormatOverview renders an overview with category labels from cats.
func FormatOverview(o Overview, cats map[string]routine.CategoryConfig) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Daily routine</b>\n")
	if t, err := routine.ParseDate(o.Date); err == nil {
		builder.WriteString(fmt.Sprintf("🗓 %s\n\n", t.Format("Mon, 02 Jan 2006")))
	} else {
		builder.WriteString(fmt.Sprintf("🗓 %s\n\n", o.Date))
	}

	if len(o.Tasks) == 0 {
		builder.WriteString("— nothing planned for today\n")
	} else {
		done := 0
		for _, task := range o.Tasks {
			if task.Completed {
				done++
			}
			builder.WriteString(FormatDayTask(task, cats))
		}
		builder.WriteString(fmt.Sprintf("\n✅ %d/%d done\n", done, len(o.Tasks)))
	}

	builder.WriteString(fmt.Sprintf("🔥 Streak: %d %s\n", o.Streak, plural(o.Streak, "day", "days")))
	builder.WriteString(fmt.Sprintf("📈 Last %d days: %d%%\n", routine.StatsWindow, o.Stats.AverageRate))
	return strings.TrimSpace(builder.String())
}

// FormatDayTask renders one task line.
func FormatDayTask(task routine.DayTask, cats map[string]routine.CategoryConfig) string {
	mark := "⬜️"
	if task.Completed {
		mark = "✅"
	}
	title := html.EscapeString(strings.TrimSpace(task.Title))
	if task.Completed {
		title = "<s>" + title + "</s>"
	}
	label := strings.TrimSpace(routine.LookupCategory(cats, task.Category).Label)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <code>%s</code> %s", mark, task.TimeRange(), title))
	if label != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(label)))
	}
	if task.SourceKind == routine.KindTemplate {
		sb.WriteString(" ♻️")
	}
	sb.WriteByte('\n')
	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
