package repository

import (
	"context"

	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// NotificationRepository handles user-visible alerts.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{db: database.MainDB}
}

func (r *NotificationRepository) WithDB(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// FindLatestByUser returns the newest notifications first.
func (r *NotificationRepository) FindLatestByUser(
	ctx context.Context,
	userID uint,
	limit int,
) ([]model.Notification, error) {

	if limit <= 0 {
		limit = 50
	}

	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// FindByUserAfterID returns notifications created after lastID, oldest first.
// Used by the websocket stream for incremental polling.
func (r *NotificationRepository) FindByUserAfterID(
	ctx context.Context,
	userID uint,
	lastID uint,
) ([]model.Notification, error) {

	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, lastID).
		Order("id ASC").
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flags one notification as read, scoped by owner. Returns false
// when nothing matched.
func (r *NotificationRepository) MarkRead(
	ctx context.Context,
	userID uint,
	id uint,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}
