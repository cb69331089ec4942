package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// EventLogRepository handles the idempotency ledger (sync_event_logs).
type EventLogRepository struct {
	db *gorm.DB
}

// NewEventLogRepository creates a new repository instance using the main database.
func NewEventLogRepository() *EventLogRepository {
	return &EventLogRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *EventLogRepository) WithDB(db *gorm.DB) *EventLogRepository {
	return &EventLogRepository{db: db}
}

// InsertIfAbsent atomically creates the pending ledger row for
// (owner, event id). The composite unique index is the arbiter: on a
// duplicate-key conflict the existing row is fetched and returned with
// admitted=false. This is the single admission point for inbound events.
func (r *EventLogRepository) InsertIfAbsent(
	ctx context.Context,
	entry *model.SyncEventLog,
) (admitted bool, existing *model.SyncEventLog, err error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "EventLogRepository",
		"op":       "InsertIfAbsent",
		"event_id": entry.EventID,
		"user_id":  entry.UserID,
	}).Debug("Admitting inbound event")

	err = r.db.WithContext(ctx).Create(entry).Error
	if err == nil {
		return true, nil, nil
	}

	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		logger.WithFields(map[string]interface{}{
			"repo":     "EventLogRepository",
			"op":       "InsertIfAbsent",
			"event_id": entry.EventID,
		}).WithError(err).Error("Failed to create event log row")
		return false, nil, err
	}

	var prior model.SyncEventLog
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", entry.UserID, entry.EventID).
		First(&prior).Error
	if err != nil {
		return false, nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "EventLogRepository",
		"op":           "InsertIfAbsent",
		"event_id":     entry.EventID,
		"prior_status": prior.Status,
	}).Info("Duplicate event delivery detected")

	return false, &prior, nil
}

// Rearm resets a stale pending or failed row for reprocessing: counters and
// error message are cleared and status returns to pending. Used when a
// redelivery arrives for an event whose original processing crashed or failed.
func (r *EventLogRepository) Rearm(
	ctx context.Context,
	id uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo": "EventLogRepository",
		"op":   "Rearm",
		"id":   id,
	}).Warn("Re-arming event log row for reprocessing")

	return r.db.WithContext(ctx).
		Model(&model.SyncEventLog{}).
		Where("id = ? AND status IN ?", id, []string{model.EventLogStatusPending, model.EventLogStatusFailed}).
		Updates(map[string]interface{}{
			"status":         model.EventLogStatusPending,
			"trades_created": 0,
			"trades_updated": 0,
			"trades_skipped": 0,
			"error_message":  "",
			"updated_at":     time.Now(),
		}).Error
}

// MarkTerminal writes the terminal outcome of one event's processing onto its
// ledger row.
func (r *EventLogRepository) MarkTerminal(
	ctx context.Context,
	id uint,
	status string,
	created, updated, skipped int,
	errorMessage string,
) error {

	now := time.Now()

	err := r.db.WithContext(ctx).
		Model(&model.SyncEventLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"trades_created": created,
			"trades_updated": updated,
			"trades_skipped": skipped,
			"error_message":  errorMessage,
			"processed_at":   &now,
		}).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "EventLogRepository",
			"op":     "MarkTerminal",
			"id":     id,
			"status": status,
		}).WithError(err).Error("Failed to finalize event log row")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "EventLogRepository",
		"op":      "MarkTerminal",
		"id":      id,
		"status":  status,
		"created": created,
		"updated": updated,
		"skipped": skipped,
	}).Info("Event log finalized")

	return nil
}

// FindByOwnerAndEventID fetches a ledger row. Returns (nil, nil) if not found.
func (r *EventLogRepository) FindByOwnerAndEventID(
	ctx context.Context,
	userID uint,
	eventID string,
) (*model.SyncEventLog, error) {

	var entry model.SyncEventLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
