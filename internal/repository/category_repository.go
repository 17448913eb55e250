package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListCustom returns the user-created categories keyed by their key.
func (r *CategoryRepository) ListCustom(ctx context.Context) (map[string]routine.CategoryConfig, error) {
	var rows []model.Category
	if err := r.db.WithContext(ctx).Where("is_default = ?", false).Order("`key` ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make(map[string]routine.CategoryConfig, len(rows))
	for _, row := range rows {
		out[row.Key] = routine.CategoryConfig{Label: row.Label, Color: row.Color, Bg: row.Bg}
	}
	return out, nil
}

func (r *CategoryRepository) FindByKey(ctx context.Context, key string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Create stores a custom category. A taken key yields ErrDuplicate.
func (r *CategoryRepository) Create(ctx context.Context, key string, cfg routine.CategoryConfig) error {
	row := model.Category{Key: key, Label: cfg.Label, Color: cfg.Color, Bg: cfg.Bg}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create category %s: %w", key, ErrDuplicate)
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// CreateIfMissing stores a custom category unless the key is taken and
// reports whether a row was written.
func (r *CategoryRepository) CreateIfMissing(ctx context.Context, key string, cfg routine.CategoryConfig) (bool, error) {
	row := model.Category{Key: key, Label: cfg.Label, Color: cfg.Color, Bg: cfg.Bg}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("create category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SeedDefaults inserts the built-in categories, leaving existing rows untouched.
func (r *CategoryRepository) SeedDefaults(ctx context.Context) error {
	for _, key := range routine.DefaultCategoryOrder {
		cfg := routine.DefaultCategories[key]
		row := model.Category{Key: key, Label: cfg.Label, Color: cfg.Color, Bg: cfg.Bg, IsDefault: true}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("seed category %s: %w", key, err)
		}
	}
	return nil
}
