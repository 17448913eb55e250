package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

// MaxDuration bounds a single task to one day.
const MaxDuration = 24.0

// TemplateInput carries the editable fields of a template. Nil Hour or
// Duration fall back to the routine defaults.
type TemplateInput struct {
	Title      string
	Category   string
	RepeatDays []time.Weekday
	Hour       *int
	Duration   *float64
}

// OneOffInput carries the fields of a new one-off task.
type OneOffInput struct {
	Title    string
	Category string
	Date     string
	Hour     *int
	Duration *float64
}

// Overview bundles everything shown for one day.
type Overview struct {
	Date   string
	Tasks  []routine.DayTask
	Streak int
	Stats  routine.Summary
}

// PlannerService drives the materializer over the stores.
type PlannerService struct {
	templates TemplateStore
	oneoffs   OneOffStore
	ledger    LedgerStore
	loc       *time.Location
}

func NewPlannerService(templates TemplateStore, oneoffs OneOffStore, ledger LedgerStore, loc *time.Location) *PlannerService {
	if loc == nil {
		loc = time.Local
	}
	return &PlannerService{templates: templates, oneoffs: oneoffs, ledger: ledger, loc: loc}
}

// Location is the zone that decides what "today" is.
func (s *PlannerService) Location() *time.Location {
	return s.loc
}

// Today returns the current date in the planner's zone.
func (s *PlannerService) Today(now time.Time) string {
	return routine.Today(now, s.loc)
}

// Snapshot loads templates, one-offs and the ledger in one go.
func (s *PlannerService) Snapshot(ctx context.Context) (routine.Snapshot, error) {
	tpls, err := s.templates.List(ctx)
	if err != nil {
		return routine.Snapshot{}, err
	}
	oneoffs, err := s.oneoffs.List(ctx)
	if err != nil {
		return routine.Snapshot{}, err
	}
	ledger, err := s.ledger.ListAll(ctx)
	if err != nil {
		return routine.Snapshot{}, err
	}

	snap := routine.Snapshot{Ledger: ledger}
	for _, t := range tpls {
		snap.Templates = append(snap.Templates, templateFromModel(t))
	}
	for _, o := range oneoffs {
		snap.OneOffs = append(snap.OneOffs, oneOffFromModel(o))
	}
	return snap, nil
}

// DayTasks materializes the task list for a YYYY-MM-DD date.
func (s *PlannerService) DayTasks(ctx context.Context, date string) ([]routine.DayTask, error) {
	if _, err := routine.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return routine.Materialize(date, snap.Templates, snap.OneOffs, snap.Ledger)
}

// Streak returns the current run of fully completed days.
func (s *PlannerService) Streak(ctx context.Context, now time.Time) (int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return routine.ComputeStreak(now.In(s.loc), snap.TasksFor), nil
}

// Stats returns completion counts for the last seven days.
func (s *PlannerService) Stats(ctx context.Context, now time.Time) (routine.Summary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return routine.Summary{}, err
	}
	return routine.WeekStats(now.In(s.loc), snap.TasksFor), nil
}

// Overview computes today's tasks, the streak and weekly stats from a single snapshot.
func (s *PlannerService) Overview(ctx context.Context, now time.Time) (Overview, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Overview{}, err
	}
	local := now.In(s.loc)
	date := routine.FormatDate(local)
	return Overview{
		Date:   date,
		Tasks:  snap.TasksFor(date),
		Streak: routine.ComputeStreak(local, snap.TasksFor),
		Stats:  routine.WeekStats(local, snap.TasksFor),
	}, nil
}

// Toggle flips completion of one task instance and returns the new state.
func (s *PlannerService) Toggle(ctx context.Context, date string, kind routine.SourceKind, sourceID string) (bool, error) {
	if _, err := routine.ParseDate(date); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !kind.Valid() {
		return false, invalid("unknown source kind %q", kind)
	}
	switch kind {
	case routine.KindTemplate:
		if _, err := s.templates.Get(ctx, sourceID); err != nil {
			return false, notFound(err, "template", sourceID)
		}
	case routine.KindOneOff:
		if _, err := s.oneoffs.Get(ctx, sourceID); err != nil {
			return false, notFound(err, "oneoff", sourceID)
		}
	}
	done, err := s.ledger.Toggle(ctx, date, kind, sourceID)
	if err != nil {
		return false, err
	}
	log.Printf("[info] toggled %s completed=%t", routine.MakeCompletionKey(date, kind, sourceID), done)
	return done, nil
}

// Templates lists all recurring templates in creation order.
func (s *PlannerService) Templates(ctx context.Context) ([]routine.Template, error) {
	rows, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]routine.Template, 0, len(rows))
	for _, r := range rows {
		out = append(out, templateFromModel(r))
	}
	return out, nil
}

func (s *PlannerService) Template(ctx context.Context, id string) (routine.Template, error) {
	row, err := s.templates.Get(ctx, id)
	if err != nil {
		return routine.Template{}, notFound(err, "template", id)
	}
	return templateFromModel(*row), nil
}

func (s *PlannerService) CreateTemplate(ctx context.Context, input TemplateInput) (routine.Template, error) {
	row, err := templateRow(input)
	if err != nil {
		return routine.Template{}, err
	}
	if err := s.templates.Create(ctx, &row); err != nil {
		return routine.Template{}, err
	}
	log.Printf("[info] template created id=%s days=%v", row.ID, row.RepeatDays)
	return templateFromModel(row), nil
}

func (s *PlannerService) UpdateTemplate(ctx context.Context, id string, input TemplateInput) (routine.Template, error) {
	row, err := templateRow(input)
	if err != nil {
		return routine.Template{}, err
	}
	row.ID = id
	if err := s.templates.Update(ctx, &row); err != nil {
		return routine.Template{}, notFound(err, "template", id)
	}
	return templateFromModel(row), nil
}

// DeleteTemplate removes a template. Its historical ledger rows stay.
func (s *PlannerService) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[info] template deleted id=%s", id)
	return nil
}

// OneOffs lists all one-off tasks in creation order.
func (s *PlannerService) OneOffs(ctx context.Context) ([]routine.OneOff, error) {
	rows, err := s.oneoffs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]routine.OneOff, 0, len(rows))
	for _, r := range rows {
		out = append(out, oneOffFromModel(r))
	}
	return out, nil
}

// OneOffsOn lists the one-off tasks dated on date.
func (s *PlannerService) OneOffsOn(ctx context.Context, date string) ([]routine.OneOff, error) {
	if _, err := routine.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rows, err := s.oneoffs.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]routine.OneOff, 0, len(rows))
	for _, r := range rows {
		out = append(out, oneOffFromModel(r))
	}
	return out, nil
}

func (s *PlannerService) CreateOneOff(ctx context.Context, input OneOffInput) (routine.OneOff, error) {
	title, category, err := cleanTitleCategory(input.Title, input.Category)
	if err != nil {
		return routine.OneOff{}, err
	}
	if _, err := routine.ParseDate(input.Date); err != nil {
		return routine.OneOff{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hour, duration, err := schedule(input.Hour, input.Duration)
	if err != nil {
		return routine.OneOff{}, err
	}
	row := model.OneOff{Title: title, Category: category, Date: input.Date, Hour: &hour, Duration: &duration}
	if err := s.oneoffs.Create(ctx, &row); err != nil {
		return routine.OneOff{}, err
	}
	log.Printf("[info] oneoff created id=%s date=%s", row.ID, row.Date)
	return oneOffFromModel(row), nil
}

// RescheduleOneOff changes the start hour and duration of a one-off.
func (s *PlannerService) RescheduleOneOff(ctx context.Context, id string, hour int, duration float64) (routine.OneOff, error) {
	if _, _, err := schedule(&hour, &duration); err != nil {
		return routine.OneOff{}, err
	}
	row, err := s.oneoffs.UpdateSchedule(ctx, id, hour, duration)
	if err != nil {
		return routine.OneOff{}, notFound(err, "oneoff", id)
	}
	return oneOffFromModel(*row), nil
}

// DeleteOneOff removes a one-off together with its ledger entries.
func (s *PlannerService) DeleteOneOff(ctx context.Context, id string) error {
	if err := s.ledger.DeleteBySource(ctx, routine.KindOneOff, id); err != nil {
		return err
	}
	if err := s.oneoffs.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[info] oneoff deleted id=%s", id)
	return nil
}

// PromoteToTemplates turns one-offs of date into recurring templates. When
// date itself falls on one of the repeat days the originals are deleted so the
// day does not list them twice.
func (s *PlannerService) PromoteToTemplates(ctx context.Context, date string, oneoffIDs []string, days []time.Weekday) ([]routine.Template, error) {
	wd, err := routine.Weekday(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	days = routine.NormalizeRepeatDays(days)
	if len(days) == 0 {
		return nil, invalid("pick at least one repeat day")
	}

	sources := make([]model.OneOff, 0, len(oneoffIDs))
	for _, id := range oneoffIDs {
		row, err := s.oneoffs.Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "oneoff", id)
		}
		if row.Date != date {
			return nil, invalid("oneoff %s is dated %s, not %s", id, row.Date, date)
		}
		sources = append(sources, *row)
	}

	created := make([]routine.Template, 0, len(sources))
	for _, src := range sources {
		tpl, err := s.CreateTemplate(ctx, TemplateInput{
			Title:      src.Title,
			Category:   src.Category,
			RepeatDays: days,
			Hour:       src.Hour,
			Duration:   src.Duration,
		})
		if err != nil {
			return created, err
		}
		created = append(created, tpl)
	}

	if (routine.Template{RepeatDays: days}).RepeatsOn(wd) {
		for _, src := range sources {
			if err := s.DeleteOneOff(ctx, src.ID); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

func templateRow(input TemplateInput) (model.Template, error) {
	title, category, err := cleanTitleCategory(input.Title, input.Category)
	if err != nil {
		return model.Template{}, err
	}
	days := routine.NormalizeRepeatDays(input.RepeatDays)
	if len(days) == 0 {
		return model.Template{}, invalid("pick at least one repeat day")
	}
	hour, duration, err := schedule(input.Hour, input.Duration)
	if err != nil {
		return model.Template{}, err
	}
	return model.Template{
		Title:      title,
		Category:   category,
		RepeatDays: weekdaysToInts(days),
		Hour:       &hour,
		Duration:   &duration,
	}, nil
}

func cleanTitleCategory(title, category string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", invalid("title is required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "other"
	}
	return title, category, nil
}

func schedule(hour *int, duration *float64) (int, float64, error) {
	h, d := routine.DefaultHour, routine.DefaultDuration
	if hour != nil {
		h = *hour
	}
	if duration != nil {
		d = *duration
	}
	if h < 0 || h > routine.LastHour {
		return 0, 0, invalid("hour %d out of range 0-23", h)
	}
	if d <= 0 || d > MaxDuration || math.IsNaN(d) {
		return 0, 0, invalid("duration %g must be between 0 and 24 hours", d)
	}
	return h, d, nil
}
