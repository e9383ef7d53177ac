package model

import "time"

// Notification is the record of a single broadcast attempt.
type Notification struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	Title              string `gorm:"size:256;not null"`
	Body               string `gorm:"not null"`
	URL                string `gorm:"size:512"`
	Icon               string `gorm:"size:512"`
	Tag                string `gorm:"size:128"`
	RequireInteraction bool
	SentCount          int       `gorm:"not null"`
	SuccessCount       int       `gorm:"not null"`
	ErrorCount         int       `gorm:"not null"`
	OpenCount          int       `gorm:"not null"`
	CreatedBy          string    `gorm:"size:256"`
	CreatedAt          time.Time `gorm:"index"`
	SentAt             *time.Time
}
