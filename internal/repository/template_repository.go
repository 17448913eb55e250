package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routine-tracker/internal/model"
)

// TemplateRepository handles CRUD for recurring templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns all templates in creation order.
func (r *TemplateRepository) List(ctx context.Context) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.WithContext(ctx).Order("created_at ASC, rowid ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) Get(ctx context.Context, id string) (*model.Template, error) {
	var tpl model.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Create inserts tpl, assigning a new id when it has none.
func (r *TemplateRepository) Create(ctx context.Context, tpl *model.Template) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an existing template.
func (r *TemplateRepository) Update(ctx context.Context, tpl *model.Template) error {
	res := r.db.WithContext(ctx).Model(&model.Template{ID: tpl.ID}).
		Select("title", "category", "repeat_days", "hour", "duration").
		Updates(tpl)
	if res.Error != nil {
		return fmt.Errorf("update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Upsert writes tpl under its own id, replacing any existing row.
func (r *TemplateRepository) Upsert(ctx context.Context, tpl *model.Template) error {
	if tpl.ID == "" {
		return r.Create(ctx, tpl)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "category", "repeat_days", "hour", "duration", "updated_at"}),
	}).Create(tpl).Error
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

// Delete removes a template. Ledger rows bound to past dates are left alone;
// the template simply stops producing new instances.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Template{}).Error; err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
