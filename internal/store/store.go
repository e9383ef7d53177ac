package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"progsite-backend/internal/model"
)

// CleanupAction identifies one of the blunt admin bulk operations on
// subscriptions. None of them are reversible.
type CleanupAction string

const (
	CleanupInactive   CleanupAction = "inactive"   // delete rows flagged inactive
	CleanupStale      CleanupAction = "stale"      // delete rows older than 30 days
	CleanupAll        CleanupAction = "all"        // delete every row
	CleanupDeactivate CleanupAction = "deactivate" // flag every row inactive
)

const staleSubscriptionAge = 30 * 24 * time.Hour

// ErrUnknownCleanupAction is returned for an unrecognized cleanup action.
var ErrUnknownCleanupAction = errors.New("unknown cleanup action")

// Store defines the interface for the database operations used by the
// push pipeline.
type Store interface {
	DB() *gorm.DB

	UpsertSubscription(ctx context.Context, sub *model.Subscription) error
	DeactivateSubscriptionByEndpoint(ctx context.Context, endpoint string) error
	DeactivateSubscriptionByID(ctx context.Context, id int64) error
	ListActiveSubscriptions(ctx context.Context) ([]model.Subscription, error)
	CleanupSubscriptions(ctx context.Context, action CleanupAction) (int64, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	FinalizeNotification(ctx context.Context, id int64, successCount, errorCount int, sentAt time.Time) error
	RecentNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	DeleteNotifications(ctx context.Context, ids []int64) (int64, error)

	LogDelivery(ctx context.Context, entry *model.DeliveryLog) error
	MarkDeliveryOpened(ctx context.Context, notificationID, subscriptionID int64) (bool, error)
	OpenRates(ctx context.Context, limit int) (map[int64]int, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying gorm handle for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertSubscription creates a subscription row keyed by endpoint uniqueness.
// Re-subscribing the same endpoint overwrites the keys and reactivates it.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	sub.Active = true
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_agent", "ip", "active", "updated_at"}),
	}).Create(sub).Error
}

// DeactivateSubscriptionByEndpoint flags a subscription inactive (soft delete).
func (s *gormStore) DeactivateSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("endpoint = ?", endpoint).
		Update("active", false).Error
}

// DeactivateSubscriptionByID flags a subscription inactive. Used by the
// fan-out sender when the transport reports the endpoint as gone.
func (s *gormStore) DeactivateSubscriptionByID(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// ListActiveSubscriptions returns every subscription flagged active.
func (s *gormStore) ListActiveSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	return subs, nil
}

// CleanupSubscriptions executes one of the bulk admin operations and returns
// the number of affected rows.
func (s *gormStore) CleanupSubscriptions(ctx context.Context, action CleanupAction) (int64, error) {
	db := s.db.WithContext(ctx)
	var res *gorm.DB
	switch action {
	case CleanupInactive:
		res = db.Where("active = ?", false).Delete(&model.Subscription{})
	case CleanupStale:
		cutoff := time.Now().Add(-staleSubscriptionAge)
		res = db.Where("created_at < ?", cutoff).Delete(&model.Subscription{})
	case CleanupAll:
		res = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Subscription{})
	case CleanupDeactivate:
		res = db.Model(&model.Subscription{}).Where("active = ?", true).Update("active", false)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCleanupAction, action)
	}
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup %q failed: %w", action, res.Error)
	}
	return res.RowsAffected, nil
}

// CreateNotification inserts the broadcast record before fan-out begins.
func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}
	return nil
}

// FinalizeNotification writes the aggregate counts once after fan-out completes.
func (s *gormStore) FinalizeNotification(ctx context.Context, id int64, successCount, errorCount int, sentAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"success_count": successCount,
			"error_count":   errorCount,
			"sent_at":       sentAt,
		}).Error
}

// RecentNotifications returns the most recent broadcast records, newest first.
func (s *gormStore) RecentNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	var notifs []model.Notification
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifs, nil
}

// DeleteNotifications removes broadcast records together with their delivery logs.
func (s *gormStore) DeleteNotifications(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notification_id IN ?", ids).Delete(&model.DeliveryLog{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Notification{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return affected, nil
}

// LogDelivery writes one per-subscription outcome row.
func (s *gormStore) LogDelivery(ctx context.Context, entry *model.DeliveryLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// MarkDeliveryOpened flips one delivery-log row from "sent" to "opened" and
// bumps the notification's open count in place. The status filter on the
// update makes a second identical call a no-op; the first open wins.
// Returns whether a row transitioned.
func (s *gormStore) MarkDeliveryOpened(ctx context.Context, notificationID, subscriptionID int64) (bool, error) {
	db := s.db.WithContext(ctx)

	query := db.Where("notification_id = ? AND status = ?", notificationID, model.DeliveryStatusSent)
	if subscriptionID > 0 {
		query = query.Where("subscription_id = ?", subscriptionID)
	}

	var entry model.DeliveryLog
	if err := query.Order("id").First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	res := db.Model(&model.DeliveryLog{}).
		Where("id = ? AND status = ?", entry.ID, model.DeliveryStatusSent).
		Updates(map[string]any{
			"status":    model.DeliveryStatusOpened,
			"opened_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := db.Model(&model.Notification{}).
		Where("id = ?", notificationID).
		UpdateColumn("open_count", gorm.Expr("open_count + ?", 1)).Error
	if err != nil {
		return true, err
	}
	return true, nil
}

// OpenRates aggregates delivery-log rows for the most recent notifications
// into an integer percentage per notification id. Read-only and idempotent.
func (s *gormStore) OpenRates(ctx context.Context, limit int) (map[int64]int, error) {
	notifs, err := s.RecentNotifications(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(notifs) == 0 {
		return map[int64]int{}, nil
	}

	ids := make([]int64, len(notifs))
	for i, n := range notifs {
		ids[i] = n.ID
	}

	type aggRow struct {
		NotificationID int64
		Total          int64
		Opened         int64
	}
	var aggs []aggRow
	err = s.db.WithContext(ctx).
		Model(&model.DeliveryLog{}).
		Select("notification_id as notification_id, COUNT(*) as total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as opened", model.DeliveryStatusOpened).
		Where("notification_id IN ?", ids).
		Group("notification_id").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate delivery logs: %w", err)
	}

	aggMap := make(map[int64]aggRow, len(aggs))
	for _, a := range aggs {
		aggMap[a.NotificationID] = a
	}

	rates := make(map[int64]int, len(notifs))
	for _, n := range notifs {
		agg, ok := aggMap[n.ID]
		total := agg.Total
		if !ok || total == 0 {
			// No delivery rows yet; fall back to the stored snapshot size.
			total = int64(n.SentCount)
			agg.Opened = 0
		}
		if total == 0 {
			rates[n.ID] = 0
			continue
		}
		rates[n.ID] = int(math.Round(float64(agg.Opened) / float64(total) * 100))
	}
	return rates, nil
}
