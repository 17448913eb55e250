package model

import "time"

// Template is a recurring task definition. RepeatDays holds weekday numbers
// (0=Sunday) serialized as a JSON array. Hour and Duration are nullable so
// rows written before they existed still load.
type Template struct {
	ID         string `gorm:"primaryKey;size:36"`
	Title      string `gorm:"not null"`
	Category   string `gorm:"index;size:64"`
	RepeatDays []int  `gorm:"serializer:json"`
	Hour       *int
	Duration   *float64
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

// OneOff is a task that exists for a single calendar date.
type OneOff struct {
	ID        string `gorm:"primaryKey;size:36"`
	Title     string `gorm:"not null"`
	Category  string `gorm:"index;size:64"`
	Date      string `gorm:"index;size:10;not null"`
	Hour      *int
	Duration  *float64
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (OneOff) TableName() string {
	return "oneoffs"
}
