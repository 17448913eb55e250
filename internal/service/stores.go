package service

import (
	"context"

	"routine-tracker/internal/model"
	"routine-tracker/internal/repository"
	"routine-tracker/internal/routine"
)

// TemplateStore persists recurring templates.
type TemplateStore interface {
	List(ctx context.Context) ([]model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	Create(ctx context.Context, tpl *model.Template) error
	Update(ctx context.Context, tpl *model.Template) error
	Upsert(ctx context.Context, tpl *model.Template) error
	Delete(ctx context.Context, id string) error
}

// OneOffStore persists single-date tasks.
type OneOffStore interface {
	List(ctx context.Context) ([]model.OneOff, error)
	ListByDate(ctx context.Context, date string) ([]model.OneOff, error)
	Get(ctx context.Context, id string) (*model.OneOff, error)
	Create(ctx context.Context, task *model.OneOff) error
	UpdateSchedule(ctx context.Context, id string, hour int, duration float64) (*model.OneOff, error)
	Upsert(ctx context.Context, task *model.OneOff) error
	Delete(ctx context.Context, id string) error
}

// LedgerStore persists the sparse completion ledger.
type LedgerStore interface {
	ListAll(ctx context.Context) (routine.Ledger, error)
	Toggle(ctx context.Context, date string, kind routine.SourceKind, sourceID string) (bool, error)
	BulkReplace(ctx context.Context, ledger routine.Ledger) (repository.BulkResult, error)
	DeleteBySource(ctx context.Context, kind routine.SourceKind, sourceID string) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	ListCustom(ctx context.Context) (map[string]routine.CategoryConfig, error)
	FindByKey(ctx context.Context, key string) (*model.Category, error)
	Create(ctx context.Context, key string, cfg routine.CategoryConfig) error
	CreateIfMissing(ctx context.Context, key string, cfg routine.CategoryConfig) (bool, error)
	SeedDefaults(ctx context.Context) error
}

var (
	_ TemplateStore = (*repository.TemplateRepository)(nil)
	_ OneOffStore   = (*repository.OneOffRepository)(nil)
	_ LedgerStore   = (*repository.CompletionRepository)(nil)
	_ CategoryStore = (*repository.CategoryRepository)(nil)
)
