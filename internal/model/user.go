package model

import "time"

// User is a Telegram chat subscribed to the daily summary.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	ChatID     int64
	FirstName  string
	LastName   string
	Username   string
	Muted      bool `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
