package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routine-tracker/internal/repository"
	"routine-tracker/internal/routine"
)

// CategoryService merges built-in and custom categories.
type CategoryService struct {
	repo CategoryStore
}

func NewCategoryService(repo CategoryStore) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns defaults overlaid with custom categories.
func (s *CategoryService) List(ctx context.Context) (map[string]routine.CategoryConfig, error) {
	custom, err := s.repo.ListCustom(ctx)
	if err != nil {
		return nil, err
	}
	return routine.MergeCategories(custom), nil
}

// Ordered returns the merged categories in display order.
func (s *CategoryService) Ordered(ctx context.Context) ([]routine.Category, error) {
	merged, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return routine.OrderedCategories(merged), nil
}

func (s *CategoryService) Lookup(ctx context.Context, key string) (routine.CategoryConfig, error) {
	merged, err := s.List(ctx)
	if err != nil {
		return routine.CategoryConfig{}, err
	}
	return routine.LookupCategory(merged, key), nil
}

// Create adds a custom category under a generated key. Empty colors are
// taken from the preset palette.
func (s *CategoryService) Create(ctx context.Context, label string, cfg routine.CategoryConfig) (routine.Category, error) {
	key := "custom-" + uuid.NewString()[:8]
	return s.CreateWithKey(ctx, key, label, cfg)
}

// CreateWithKey adds a custom category under key. Keys of built-in or
// existing categories are rejected with ErrCategoryExists.
func (s *CategoryService) CreateWithKey(ctx context.Context, key, label string, cfg routine.CategoryConfig) (routine.Category, error) {
	key = strings.TrimSpace(key)
	label = strings.TrimSpace(label)
	if key == "" {
		return routine.Category{}, invalid("category key is required")
	}
	if label == "" {
		return routine.Category{}, invalid("category label is required")
	}
	if routine.IsDefaultCategory(key) {
		return routine.Category{}, fmt.Errorf("category %s: %w", key, ErrCategoryExists)
	}
	if _, err := s.repo.FindByKey(ctx, key); err == nil {
		return routine.Category{}, fmt.Errorf("category %s: %w", key, ErrCategoryExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return routine.Category{}, err
	}

	if cfg.Color == "" || cfg.Bg == "" {
		custom, err := s.repo.ListCustom(ctx)
		if err != nil {
			return routine.Category{}, err
		}
		preset := routine.ColorPresets[len(custom)%len(routine.ColorPresets)]
		cfg.Color, cfg.Bg = preset.Color, preset.Bg
	}
	cfg.Label = label

	if err := s.repo.Create(ctx, key, cfg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return routine.Category{}, fmt.Errorf("category %s: %w", key, ErrCategoryExists)
		}
		return routine.Category{}, err
	}
	log.Printf("[info] category created key=%s", key)
	return routine.Category{Key: key, Config: cfg}, nil
}

// SeedDefaults writes the built-in categories to the store.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	return s.repo.SeedDefaults(ctx)
}
