package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// SignalRepository handles read/write operations for signals.
type SignalRepository struct {
	db *gorm.DB
}

func NewSignalRepository() *SignalRepository {
	return &SignalRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SignalRepository) WithDB(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create inserts a new signal. Signals are never merged with prior ones.
func (r *SignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	err := r.db.WithContext(ctx).Create(signal).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "SignalRepository",
			"op":     "Create",
			"symbol": signal.Symbol,
			"action": signal.Action,
		}).WithError(err).Error("Failed to create signal")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":      "SignalRepository",
		"op":        "Create",
		"signal_id": signal.ID,
		"symbol":    signal.Symbol,
		"action":    signal.Action,
		"provider":  signal.Provider,
	}).Info("Signal created")

	return nil
}

// FindByIDAndUser fetches a signal scoped by owner. Returns (nil, nil) if not
// found or owned by another user.
func (r *SignalRepository) FindByIDAndUser(
	ctx context.Context,
	userID uint,
	id uint,
) (*model.Signal, error) {

	var signal model.Signal
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&signal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &signal, nil
}

// TransitionStatus moves a signal from "new" to a terminal status exactly
// once. Returns false when the signal already left the "new" state.
func (r *SignalRepository) TransitionStatus(
	ctx context.Context,
	userID uint,
	id uint,
	status string,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&model.Signal{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.SignalStatusNew).
		Update("status", status)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "SignalRepository",
			"op":        "TransitionStatus",
			"signal_id": id,
			"status":    status,
		}).WithError(res.Error).Error("Failed to transition signal status")
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}
