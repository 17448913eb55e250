package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"routine-tracker/internal/repository"
	"routine-tracker/internal/routine"
)

// 2026-10-12 is a Monday.
const monday = "2026-10-12"

type fixture struct {
	planner    *PlannerService
	categories *CategoryService
	transfer   *TransferService
	reminder   *ReminderService
	ledger     *repository.CompletionRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repository.NewDB(dsn, repository.Options{})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	templates := repository.NewTemplateRepository(db)
	oneoffs := repository.NewOneOffRepository(db)
	ledger := repository.NewCompletionRepository(db)
	categories := repository.NewCategoryRepository(db)

	planner := NewPlannerService(templates, oneoffs, ledger, time.UTC)
	catService := NewCategoryService(categories)
	return fixture{
		planner:    planner,
		categories: catService,
		transfer:   NewTransferService(templates, oneoffs, ledger, categories),
		reminder:   NewReminderService(planner, catService),
		ledger:     ledger,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func mwf() []time.Weekday {
	return []time.Weekday{time.Monday, time.Wednesday, time.Friday}
}

func TestCreateTemplateDefaults(t *testing.T) {
	f := newFixture(t)
	tpl, err := f.planner.CreateTemplate(context.Background(), TemplateInput{Title: "  Read  ", RepeatDays: mwf()})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("expected generated id")
	}
	if tpl.Title != "Read" || tpl.Category != "other" {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if *tpl.Hour != routine.DefaultHour || *tpl.Duration != routine.DefaultDuration {
		t.Fatalf("expected default schedule, got %d/%g", *tpl.Hour, *tpl.Duration)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]TemplateInput{
		"no title":      {Title: " ", RepeatDays: mwf()},
		"no days":       {Title: "Run"},
		"hour too big":  {Title: "Run", RepeatDays: mwf(), Hour: intPtr(24)},
		"negative hour": {Title: "Run", RepeatDays: mwf(), Hour: intPtr(-1)},
		"zero duration": {Title: "Run", RepeatDays: mwf(), Duration: floatPtr(0)},
		"too long":      {Title: "Run", RepeatDays: mwf(), Duration: floatPtr(25)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.planner.CreateTemplate(context.Background(), input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdateTemplateMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.planner.UpdateTemplate(context.Background(), "nope", TemplateInput{Title: "Run", RepeatDays: mwf()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDayTasksAndToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tpl, err := f.planner.CreateTemplate(ctx, TemplateInput{Title: "Run", Category: "exercise", RepeatDays: mwf(), Hour: intPtr(7)})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	oneoff, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Dentist", Date: monday, Hour: intPtr(6)})
	if err != nil {
		t.Fatalf("CreateOneOff: %v", err)
	}

	tasks, err := f.planner.DayTasks(ctx, monday)
	if err != nil {
		t.Fatalf("DayTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].SourceID != oneoff.ID || tasks[1].SourceID != tpl.ID {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	tuesday, err := f.planner.DayTasks(ctx, "2026-10-13")
	if err != nil {
		t.Fatalf("DayTasks: %v", err)
	}
	if len(tuesday) != 0 {
		t.Fatalf("expected empty tuesday, got %+v", tuesday)
	}

	done, err := f.planner.Toggle(ctx, monday, routine.KindTemplate, tpl.ID)
	if err != nil || !done {
		t.Fatalf("Toggle = %t, %v", done, err)
	}
	tasks, _ = f.planner.DayTasks(ctx, monday)
	if !tasks[1].Completed || tasks[0].Completed {
		t.Fatalf("expected only template completed: %+v", tasks)
	}

	done, err = f.planner.Toggle(ctx, monday, routine.KindTemplate, tpl.ID)
	if err != nil || done {
		t.Fatalf("second Toggle = %t, %v", done, err)
	}
	ledger, err := f.ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(ledger) != 0 {
		t.Fatalf("expected empty ledger after toggling back, got %v", ledger)
	}
}

func TestDayTasksInvalidDate(t *testing.T) {
	f := newFixture(t)
	if _, err := f.planner.DayTasks(context.Background(), "2026-13-01"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestToggleRejectsUnknownSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.planner.Toggle(ctx, monday, routine.KindOneOff, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.planner.Toggle(ctx, monday, routine.SourceKind("habit"), "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.planner.Toggle(ctx, "yesterday", routine.KindOneOff, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestDeleteOneOffCascadesLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	oneoff, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Dentist", Date: monday})
	if err != nil {
		t.Fatalf("CreateOneOff: %v", err)
	}
	if _, err := f.planner.Toggle(ctx, monday, routine.KindOneOff, oneoff.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := f.planner.DeleteOneOff(ctx, oneoff.ID); err != nil {
		t.Fatalf("DeleteOneOff: %v", err)
	}

	ledger, err := f.ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for key := range ledger {
		if strings.HasSuffix(key, ":"+oneoff.ID) {
			t.Fatalf("ledger still references deleted oneoff: %s", key)
		}
	}
	if err := f.planner.DeleteOneOff(ctx, oneoff.ID); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
}

func TestDeleteTemplateKeepsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tpl, err := f.planner.CreateTemplate(ctx, TemplateInput{Title: "Run", RepeatDays: mwf()})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := f.planner.Toggle(ctx, monday, routine.KindTemplate, tpl.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := f.planner.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	ledger, _ := f.ledger.ListAll(ctx)
	if !ledger.Completed(monday, routine.KindTemplate, tpl.ID) {
		t.Fatal("expected template ledger row to survive")
	}
	tasks, _ := f.planner.DayTasks(ctx, monday)
	if len(tasks) != 0 {
		t.Fatalf("deleted template still materializes: %+v", tasks)
	}
}

func TestOneOffsOn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, in := range []OneOffInput{
		{Title: "Dentist", Date: "2026-10-17"},
		{Title: "Call mom", Date: "2026-10-17"},
		{Title: "Taxes", Date: "2026-10-18"},
	} {
		if _, err := f.planner.CreateOneOff(ctx, in); err != nil {
			t.Fatalf("CreateOneOff %s: %v", in.Title, err)
		}
	}

	got, err := f.planner.OneOffsOn(ctx, "2026-10-17")
	if err != nil {
		t.Fatalf("OneOffsOn: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Dentist" || got[1].Title != "Call mom" {
		t.Fatalf("unexpected oneoffs: %+v", got)
	}
	if _, err := f.planner.OneOffsOn(ctx, "17.10.2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRescheduleOneOff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	oneoff, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Call", Date: monday})
	if err != nil {
		t.Fatalf("CreateOneOff: %v", err)
	}
	got, err := f.planner.RescheduleOneOff(ctx, oneoff.ID, 14, 0.5)
	if err != nil {
		t.Fatalf("RescheduleOneOff: %v", err)
	}
	if *got.Hour != 14 || *got.Duration != 0.5 {
		t.Fatalf("unexpected schedule %d/%g", *got.Hour, *got.Duration)
	}
	if _, err := f.planner.RescheduleOneOff(ctx, "missing", 10, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.planner.RescheduleOneOff(ctx, oneoff.ID, 10, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStreakAndOverview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tpl, err := f.planner.CreateTemplate(ctx, TemplateInput{Title: "Meditate", RepeatDays: []time.Weekday{0, 1, 2, 3, 4, 5, 6}})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	now := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		date, _ := routine.AddDays("2026-10-17", -i)
		if _, err := f.planner.Toggle(ctx, date, routine.KindTemplate, tpl.ID); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}

	streak, err := f.planner.Streak(ctx, now)
	if err != nil {
		t.Fatalf("Streak: %v", err)
	}
	if streak != 5 {
		t.Fatalf("expected streak 5, got %d", streak)
	}

	overview, err := f.planner.Overview(ctx, now)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Date != "2026-10-17" || overview.Streak != 5 || len(overview.Tasks) != 1 {
		t.Fatalf("unexpected overview %+v", overview)
	}
	// 5 of 7 days done.
	if overview.Stats.TotalTasks != 7 || overview.Stats.TotalCompleted != 5 || overview.Stats.AverageRate != 71 {
		t.Fatalf("unexpected stats %+v", overview.Stats)
	}
}

func TestPromoteToTemplates(t *testing.T) {
	ctx := context.Background()

	t.Run("same weekday removes originals", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Swim", Category: "exercise", Date: monday, Hour: intPtr(18), Duration: floatPtr(1.5)})
		if err != nil {
			t.Fatalf("CreateOneOff: %v", err)
		}
		created, err := f.planner.PromoteToTemplates(ctx, monday, []string{o.ID}, []time.Weekday{time.Monday})
		if err != nil {
			t.Fatalf("PromoteToTemplates: %v", err)
		}
		if len(created) != 1 || created[0].Title != "Swim" || *created[0].Hour != 18 || *created[0].Duration != 1.5 {
			t.Fatalf("unexpected templates %+v", created)
		}
		tasks, _ := f.planner.DayTasks(ctx, monday)
		if len(tasks) != 1 || tasks[0].SourceKind != routine.KindTemplate {
			t.Fatalf("expected single template task, got %+v", tasks)
		}
	})

	t.Run("other weekday keeps originals", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Swim", Date: monday})
		if err != nil {
			t.Fatalf("CreateOneOff: %v", err)
		}
		if _, err := f.planner.PromoteToTemplates(ctx, monday, []string{o.ID}, []time.Weekday{time.Tuesday}); err != nil {
			t.Fatalf("PromoteToTemplates: %v", err)
		}
		tasks, _ := f.planner.DayTasks(ctx, monday)
		if len(tasks) != 1 || tasks[0].SourceKind != routine.KindOneOff {
			t.Fatalf("expected oneoff to stay, got %+v", tasks)
		}
	})

	t.Run("wrong date", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Swim", Date: monday})
		_, err := f.planner.PromoteToTemplates(ctx, "2026-10-13", []string{o.ID}, []time.Weekday{time.Tuesday})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.categories.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	cat, err := f.categories.Create(ctx, "Reading", routine.CategoryConfig{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(cat.Key, "custom-") || cat.Config.Color == "" || cat.Config.Bg == "" {
		t.Fatalf("unexpected category %+v", cat)
	}

	if _, err := f.categories.CreateWithKey(ctx, "exercise", "Gym", routine.CategoryConfig{}); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists for default key, got %v", err)
	}
	if _, err := f.categories.CreateWithKey(ctx, cat.Key, "Again", routine.CategoryConfig{}); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists for duplicate, got %v", err)
	}
	if _, err := f.categories.Create(ctx, " ", routine.CategoryConfig{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	ordered, err := f.categories.Ordered(ctx)
	if err != nil {
		t.Fatalf("Ordered: %v", err)
	}
	if len(ordered) != 5 || ordered[0].Key != "exercise" || ordered[4].Key != cat.Key {
		t.Fatalf("unexpected order %+v", ordered)
	}

	unknown, err := f.categories.Lookup(ctx, "gardening")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if unknown.Label != "gardening" || unknown.Color != routine.NeutralColor {
		t.Fatalf("unexpected fallback %+v", unknown)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)

	tpl, err := src.planner.CreateTemplate(ctx, TemplateInput{Title: "Run", Category: "exercise", RepeatDays: mwf(), Hour: intPtr(7)})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := src.planner.CreateOneOff(ctx, OneOffInput{Title: "Dentist", Date: monday, Hour: intPtr(15), Duration: floatPtr(0.5)}); err != nil {
		t.Fatalf("CreateOneOff: %v", err)
	}
	if _, err := src.planner.Toggle(ctx, monday, routine.KindTemplate, tpl.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if _, err := src.categories.CreateWithKey(ctx, "custom-music", "Music", routine.CategoryConfig{}); err != nil {
		t.Fatalf("CreateWithKey: %v", err)
	}

	var buf bytes.Buffer
	if err := src.transfer.Export(ctx, &buf, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), `"exportDate": "2026-10-17T08:00:00Z"`) {
		t.Fatalf("missing exportDate in %s", buf.String())
	}

	dst := newFixture(t)
	res, err := dst.transfer.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Templates != 1 || res.OneOffs != 1 || res.Completions != 1 || res.Categories != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	want, _ := src.planner.DayTasks(ctx, monday)
	got, err := dst.planner.DayTasks(ctx, monday)
	if err != nil {
		t.Fatalf("DayTasks: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("task %d differs: want %+v got %+v", i, want[i], got[i])
		}
	}

	cfg, _ := dst.categories.Lookup(ctx, "custom-music")
	if cfg.Label != "Music" {
		t.Fatalf("category not imported: %+v", cfg)
	}
}

func TestImportMalformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.transfer.Import(context.Background(), strings.NewReader("{not json"))
	if !errors.Is(err, ErrImportFailed) {
		t.Fatalf("expected ErrImportFailed, got %v", err)
	}
}

func TestImportSkipsMissingSectionsAndBadRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc := `{"templates":[{"id":"a","title":"Ok","category":"study","repeatDays":[2]},{"id":"b","title":"","repeatDays":[1]}],
"completions":{"2026-10-13:template:a":true,"garbage":true,"2026-10-14:template:a":false}}`
	res, err := f.transfer.Import(ctx, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Templates != 1 || res.Skipped != 1 || res.Completions != 1 || res.SkippedCompletions != 1 || res.OneOffs != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	tasks, _ := f.planner.DayTasks(ctx, "2026-10-13")
	if len(tasks) != 1 || !tasks[0].Completed || tasks[0].Hour != routine.DefaultHour {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestDailySummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tpl, err := f.planner.CreateTemplate(ctx, TemplateInput{Title: "Run & stretch", Category: "exercise", RepeatDays: []time.Weekday{time.Saturday}, Hour: intPtr(7)})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := f.planner.CreateOneOff(ctx, OneOffInput{Title: "Groceries", Date: "2026-10-17", Hour: intPtr(11), Duration: floatPtr(0.5)}); err != nil {
		t.Fatalf("CreateOneOff: %v", err)
	}
	if _, err := f.planner.Toggle(ctx, "2026-10-17", routine.KindTemplate, tpl.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	text, err := f.reminder.DailySummary(ctx, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	for _, want := range []string{
		"Sat, 17 Oct 2026",
		"<s>Run &amp; stretch</s>",
		"<i>(Exercise)</i>",
		"<code>11:00-11:30</code> Groceries",
		"1/2 done",
		"Streak: 0 days",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestBuildDailySpec(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:30", want: "0 30 8 * * *"},
		{in: "0:00", want: "0 0 0 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tc := range cases {
		got, err := BuildDailySpec(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("BuildDailySpec(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("BuildDailySpec(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
