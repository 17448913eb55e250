package model

import "time"

// Category is a display group for tasks. Default rows are seeded at startup.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;size:64;not null"`
	Label     string `gorm:"not null"`
	Color     string
	Bg        string
	IsDefault bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
