package model

import "time"

// Delivery log statuses.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
	DeliveryStatusOpened = "opened"
)

// DeliveryLog records the outcome of one notification sent to one subscription.
type DeliveryLog struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	NotificationID int64  `gorm:"not null;index"`
	SubscriptionID int64  `gorm:"index"`
	Status         string `gorm:"size:16;not null;index"`
	ErrorMessage   string
	SentAt         time.Time `gorm:"not null"`
	OpenedAt       *time.Time

	// Associations
	Notification Notification `gorm:"constraint:OnDelete:CASCADE"`
}
