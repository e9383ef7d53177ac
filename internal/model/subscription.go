package model

import "time"

// Subscription holds a browser push subscription and its encryption keys.
type Subscription struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Endpoint  string `gorm:"uniqueIndex;size:512;not null"`
	P256DH    string `gorm:"column:p256dh;not null"`
	Auth      string `gorm:"not null"`
	UserAgent string `gorm:"size:512"`
	IP        string `gorm:"size:64"`
	Active    bool   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
