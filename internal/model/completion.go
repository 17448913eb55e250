package model

import "time"

// Completion is one row of the sparse completion ledger. Rows are deleted
// when an instance is un-completed, so a missing row means "not done".
type Completion struct {
	ID         uint   `gorm:"primaryKey"`
	Date       string `gorm:"size:10;not null;uniqueIndex:idx_completion_instance"`
	SourceType string `gorm:"size:16;not null;uniqueIndex:idx_completion_instance;index:idx_completion_source"`
	SourceID   string `gorm:"size:64;not null;uniqueIndex:idx_completion_instance;index:idx_completion_source"`
	Completed  bool   `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
