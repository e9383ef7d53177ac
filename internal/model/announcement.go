package model

import "time"

// Announcement is a public notice shown on the program site.
type Announcement struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"size:256;not null"`
	Body        string `gorm:"not null"`
	Category    string `gorm:"size:64;index"`
	Pinned      bool   `gorm:"not null;default:false"`
	Published   bool   `gorm:"not null;default:false;index"`
	PublishedAt *time.Time
	Author      string `gorm:"size:256"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
