package model

import "time"

// Event is a calendar entry (info session, application deadline, open day).
type Event struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"size:256;not null"`
	Description string
	Location    string    `gorm:"size:256"`
	StartsAt    time.Time `gorm:"not null;index"`
	EndsAt      *time.Time
	Published   bool `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
