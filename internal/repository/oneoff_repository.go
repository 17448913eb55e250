package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routine-tracker/internal/model"
)

// OneOffRepository handles CRUD for single-date tasks.
type OneOffRepository struct {
	db *gorm.DB
}

func NewOneOffRepository(db *gorm.DB) *OneOffRepository {
	return &OneOffRepository{db: db}
}

// List returns all one-off tasks in creation order.
func (r *OneOffRepository) List(ctx context.Context) ([]model.OneOff, error) {
	var tasks []model.OneOff
	if err := r.db.WithContext(ctx).Order("created_at ASC, rowid ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list oneoffs: %w", err)
	}
	return tasks, nil
}

func (r *OneOffRepository) ListByDate(ctx context.Context, date string) ([]model.OneOff, error) {
	var tasks []model.OneOff
	if err := r.db.WithContext(ctx).Where("date = ?", date).Order("created_at ASC, rowid ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list oneoffs for %s: %w", date, err)
	}
	return tasks, nil
}

func (r *OneOffRepository) Get(ctx context.Context, id string) (*model.OneOff, error) {
	var task model.OneOff
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Create inserts task, assigning a new id when it has none.
func (r *OneOffRepository) Create(ctx context.Context, task *model.OneOff) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create oneoff: %w", err)
	}
	return nil
}

// UpdateSchedule changes when a one-off starts and how long it lasts.
func (r *OneOffRepository) UpdateSchedule(ctx context.Context, id string, hour int, duration float64) (*model.OneOff, error) {
	res := r.db.WithContext(ctx).Model(&model.OneOff{ID: id}).
		Updates(map[string]interface{}{"hour": hour, "duration": duration})
	if res.Error != nil {
		return nil, fmt.Errorf("update oneoff: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, id)
}

// Upsert writes task under its own id, replacing any existing row.
func (r *OneOffRepository) Upsert(ctx context.Context, task *model.OneOff) error {
	if task.ID == "" {
		return r.Create(ctx, task)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "category", "date", "hour", "duration", "updated_at"}),
	}).Create(task).Error
	if err != nil {
		return fmt.Errorf("upsert oneoff: %w", err)
	}
	return nil
}

func (r *OneOffRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.OneOff{}).Error; err != nil {
		return fmt.Errorf("delete oneoff: %w", err)
	}
	return nil
}
