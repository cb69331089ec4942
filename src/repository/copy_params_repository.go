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

// CopyParamsRepository handles copy-trade configurations and their daily
// counters.
type CopyParamsRepository struct {
	db *gorm.DB
}

func NewCopyParamsRepository() *CopyParamsRepository {
	return &CopyParamsRepository{db: database.MainDB}
}

func (r *CopyParamsRepository) WithDB(db *gorm.DB) *CopyParamsRepository {
	return &CopyParamsRepository{db: db}
}

// FindByIDAndUser fetches copy parameters scoped by owner. Returns (nil, nil)
// if not found or owned by another user.
func (r *CopyParamsRepository) FindByIDAndUser(
	ctx context.Context,
	userID uint,
	id uint,
) (*model.CopyParameters, error) {

	var params model.CopyParameters
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&params).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &params, nil
}

// RecordCopy bumps the daily counter and stamps last_copy_at. The counter and
// its epoch are written in one statement: when the stored epoch is not the
// given one the counter restarts at 1, otherwise it increments. This is the
// atomic day-boundary reset.
func (r *CopyParamsRepository) RecordCopy(
	ctx context.Context,
	id uint,
	epoch string,
	at time.Time,
) error {

	err := r.db.WithContext(ctx).
		Model(&model.CopyParameters{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trades_copied_today": gorm.Expr(
				"CASE WHEN copy_epoch = ? THEN trades_copied_today + 1 ELSE 1 END", epoch),
			"copy_epoch":   epoch,
			"last_copy_at": at,
		}).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":           "CopyParamsRepository",
			"op":             "RecordCopy",
			"copy_params_id": id,
			"epoch":          epoch,
		}).WithError(err).Error("Failed to record copy against daily counter")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "CopyParamsRepository",
		"op":             "RecordCopy",
		"copy_params_id": id,
		"epoch":          epoch,
	}).Debug("Daily copy counter updated")

	return nil
}
