package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := NewDB(dsn, Options{})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestTemplateRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t))

	tpl := &model.Template{Title: "Run", Category: "exercise", RepeatDays: []int{1, 3, 5}, Hour: intPtr(7), Duration: floatPtr(1)}
	if err := repo.Create(ctx, tpl); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("expected generated id")
	}

	second := &model.Template{Title: "Read", Category: "study", RepeatDays: []int{0}}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != tpl.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if len(list[0].RepeatDays) != 3 || list[0].RepeatDays[2] != 5 {
		t.Fatalf("repeat days not round-tripped: %v", list[0].RepeatDays)
	}
	if list[1].Hour != nil || list[1].Duration != nil {
		t.Fatalf("legacy template should keep nil hour/duration: %+v", list[1])
	}

	tpl.Title = "Run fast"
	tpl.RepeatDays = []int{2}
	tpl.Hour = intPtr(6)
	if err := repo.Update(ctx, tpl); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Get(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Run fast" || len(got.RepeatDays) != 1 || got.RepeatDays[0] != 2 || *got.Hour != 6 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.Update(ctx, &model.Template{ID: "missing", Title: "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.Delete(ctx, tpl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, tpl.ID); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := repo.Get(ctx, tpl.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTemplateRepositoryUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t))

	tpl := &model.Template{ID: "fixed-id", Title: "A", RepeatDays: []int{1}}
	if err := repo.Upsert(ctx, tpl); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	again := &model.Template{ID: "fixed-id", Title: "B", RepeatDays: []int{2}}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Title != "B" || list[0].RepeatDays[0] != 2 {
		t.Fatalf("unexpected templates after upsert: %+v", list)
	}
}

func TestOneOffRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOneOffRepository(newTestDB(t))

	a := &model.OneOff{Title: "Dentist", Category: "health", Date: "2026-10-17", Hour: intPtr(15), Duration: floatPtr(0.5)}
	b := &model.OneOff{Title: "Taxes", Category: "other", Date: "2026-10-18"}
	for _, task := range []*model.OneOff{a, b} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	day, err := repo.ListByDate(ctx, "2026-10-17")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(day) != 1 || day[0].ID != a.ID {
		t.Fatalf("unexpected tasks for date: %+v", day)
	}

	updated, err := repo.UpdateSchedule(ctx, a.ID, 16, 1.5)
	if err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if *updated.Hour != 16 || *updated.Duration != 1.5 || updated.Title != "Dentist" {
		t.Fatalf("unexpected updated task: %+v", updated)
	}
	if _, err := repo.UpdateSchedule(ctx, "missing", 1, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].ID != b.ID {
		t.Fatalf("unexpected tasks after delete: %+v", all)
	}
}

func TestCompletionToggleParity(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletionRepository(newTestDB(t))

	want := []bool{true, false, true, false}
	for i, w := range want {
		got, err := repo.Toggle(ctx, "2026-10-17", routine.KindTemplate, "tpl")
		if err != nil {
			t.Fatalf("Toggle #%d: %v", i, err)
		}
		if got != w {
			t.Fatalf("Toggle #%d = %t, want %t", i, got, w)
		}
	}

	ledger, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(ledger) != 0 {
		t.Fatalf("un-completed entries must be deleted, got %v", ledger)
	}
}

func TestCompletionToggleFalseRowBecomesTrue(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCompletionRepository(db)

	row := model.Completion{Date: "2026-10-17", SourceType: "oneoff", SourceID: "x", Completed: false}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := repo.Toggle(ctx, "2026-10-17", routine.KindOneOff, "x")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !got {
		t.Fatal("false entry should toggle to true")
	}
	ledger, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if !ledger["2026-10-17:oneoff:x"] {
		t.Fatalf("expected true entry, got %v", ledger)
	}
}

func TestCompletionBulkReplace(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletionRepository(newTestDB(t))

	if _, err := repo.Toggle(ctx, "2026-01-01", routine.KindTemplate, "old"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	res, err := repo.BulkReplace(ctx, routine.Ledger{
		"2026-10-17:template:a": true,
		"2026-10-17:oneoff:b":   true,
		"2026-10-16:template:a": false,
		"garbage":               true,
	})
	if err != nil {
		t.Fatalf("BulkReplace: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	ledger, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(ledger) != 2 || !ledger["2026-10-17:template:a"] || !ledger["2026-10-17:oneoff:b"] {
		t.Fatalf("unexpected ledger %v", ledger)
	}
}

func TestCompletionDeleteBySource(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletionRepository(newTestDB(t))

	for _, date := range []string{"2026-10-16", "2026-10-17"} {
		if _, err := repo.Toggle(ctx, date, routine.KindOneOff, "x"); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}
	if _, err := repo.Toggle(ctx, "2026-10-17", routine.KindTemplate, "x"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	if err := repo.DeleteBySource(ctx, routine.KindOneOff, "x"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	ledger, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(ledger) != 1 || !ledger["2026-10-17:template:x"] {
		t.Fatalf("only the template entry should remain, got %v", ledger)
	}
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))

	if err := repo.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if err := repo.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults should be idempotent: %v", err)
	}

	custom, err := repo.ListCustom(ctx)
	if err != nil {
		t.Fatalf("ListCustom: %v", err)
	}
	if len(custom) != 0 {
		t.Fatalf("defaults must not be listed as custom: %v", custom)
	}

	music := routine.CategoryConfig{Label: "Music", Color: "text-pink-600", Bg: "bg-pink-100"}
	if err := repo.Create(ctx, "custom-music", music); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, "custom-music", music); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate key should fail with ErrDuplicate, got %v", err)
	}
	created, err := repo.CreateIfMissing(ctx, "custom-music", music)
	if err != nil || created {
		t.Fatalf("CreateIfMissing on existing key = %t, %v", created, err)
	}

	custom, err = repo.ListCustom(ctx)
	if err != nil {
		t.Fatalf("ListCustom: %v", err)
	}
	if custom["custom-music"] != music {
		t.Fatalf("unexpected custom categories %v", custom)
	}

	def, err := repo.FindByKey(ctx, "exercise")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if !def.IsDefault {
		t.Fatal("seeded category should be default")
	}
}

func TestUserRepositorySubscriptions(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	if _, err := repo.UpsertFromTelegram(ctx, 1, 100, "Ann", "", "ann"); err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	if _, err := repo.UpsertFromTelegram(ctx, 2, 200, "Bo", "", "bo"); err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	user, err := repo.UpsertFromTelegram(ctx, 1, 101, "Ann", "Lee", "ann")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	if user.ChatID != 101 || user.LastName != "Lee" {
		t.Fatalf("profile not refreshed: %+v", user)
	}

	if err := repo.SetMuted(ctx, 2, true); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if err := repo.SetMuted(ctx, 99, true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	subs, err := repo.ListSubscribed(ctx)
	if err != nil {
		t.Fatalf("ListSubscribed: %v", err)
	}
	if len(subs) != 1 || subs[0].TelegramID != 1 {
		t.Fatalf("unexpected subscribers %+v", subs)
	}
}

func TestWithBusyTimeout(t *testing.T) {
	tests := map[string]string{
		"a.db":                   "a.db?_busy_timeout=5000",
		"file:x?mode=memory":     "file:x?mode=memory&_busy_timeout=5000",
		"a.db?_busy_timeout=100": "a.db?_busy_timeout=100",
	}
	for in, want := range tests {
		if got := withBusyTimeout(in); got != want {
			t.Errorf("withBusyTimeout(%q) = %q, want %q", in, got, want)
		}
	}
}
