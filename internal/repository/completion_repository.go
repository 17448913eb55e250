package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

// CompletionRepository stores the sparse completion ledger.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// ListAll returns the ledger keyed by "date:kind:id".
func (r *CompletionRepository) ListAll(ctx context.Context) (routine.Ledger, error) {
	var rows []model.Completion
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	ledger := make(routine.Ledger, len(rows))
	for _, row := range rows {
		ledger[routine.MakeCompletionKey(row.Date, routine.SourceKind(row.SourceType), row.SourceID)] = row.Completed
	}
	return ledger, nil
}

// Toggle flips one instance and returns its new state. Completing creates a
// row; un-completing deletes it. The read and the write share a transaction.
func (r *CompletionRepository) Toggle(ctx context.Context, date string, kind routine.SourceKind, sourceID string) (bool, error) {
	var completed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Completion
		err := tx.Where("date = ? AND source_type = ? AND source_id = ?", date, string(kind), sourceID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			completed = true
			return tx.Create(&model.Completion{Date: date, SourceType: string(kind), SourceID: sourceID, Completed: true}).Error
		case err != nil:
			return err
		case existing.Completed:
			completed = false
			return tx.Delete(&existing).Error
		default:
			completed = true
			return tx.Model(&existing).Update("completed", true).Error
		}
	})
	if err != nil {
		return false, fmt.Errorf("toggle completion: %w", err)
	}
	return completed, nil
}

// BulkResult reports what BulkReplace wrote.
type BulkResult struct {
	Imported int
	Skipped  int
}

// BulkReplace clears the ledger and stores the true entries of ledger.
// False entries are dropped and malformed keys are skipped.
func (r *CompletionRepository) BulkReplace(ctx context.Context, ledger routine.Ledger) (BulkResult, error) {
	var result BulkResult
	rows := make([]model.Completion, 0, len(ledger))
	for raw, done := range ledger {
		if !done {
			continue
		}
		key, err := routine.ParseCompletionKey(raw)
		if err != nil {
			result.Skipped++
			continue
		}
		rows = append(rows, model.Completion{Date: key.Date, SourceType: string(key.Kind), SourceID: key.SourceID, Completed: true})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Completion{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk replace completions: %w", err)
	}
	result.Imported = len(rows)
	return result, nil
}

// DeleteBySource removes every ledger row of one template or one-off.
func (r *CompletionRepository) DeleteBySource(ctx context.Context, kind routine.SourceKind, sourceID string) error {
	if err := r.db.WithContext(ctx).Where("source_type = ? AND source_id = ?", string(kind), sourceID).
		Delete(&model.Completion{}).Error; err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	return nil
}
