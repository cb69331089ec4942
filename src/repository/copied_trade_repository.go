package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// CopiedTradeRepository handles copy-attempt records.
type CopiedTradeRepository struct {
	db *gorm.DB
}

func NewCopiedTradeRepository() *CopiedTradeRepository {
	return &CopiedTradeRepository{db: database.MainDB}
}

func (r *CopiedTradeRepository) WithDB(db *gorm.DB) *CopiedTradeRepository {
	return &CopiedTradeRepository{db: db}
}

// Create inserts the pending record before execution begins.
func (r *CopiedTradeRepository) Create(ctx context.Context, copied *model.CopiedTrade) error {
	err := r.db.WithContext(ctx).Create(copied).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":            "CopiedTradeRepository",
			"op":              "Create",
			"copy_params_id":  copied.CopyParamsID,
			"source_trade_id": copied.SourceTradeID,
		}).WithError(err).Error("Failed to create copied trade record")
		return err
	}
	return nil
}

// Finalize moves a pending copy attempt to its terminal status. A record is
// finalized at most once; re-finalization is a no-op.
func (r *CopiedTradeRepository) Finalize(
	ctx context.Context,
	id uint,
	status string,
	targetTradeID string,
	slippagePips float64,
	executionTimeMs int64,
	errorMessage string,
) error {

	res := r.db.WithContext(ctx).
		Model(&model.CopiedTrade{}).
		Where("id = ? AND copy_status = ?", id, model.CopyStatusPending).
		Updates(map[string]interface{}{
			"copy_status":       status,
			"target_trade_id":   targetTradeID,
			"slippage_pips":     slippagePips,
			"execution_time_ms": executionTimeMs,
			"error_message":     errorMessage,
		})

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "CopiedTradeRepository",
			"op":     "Finalize",
			"id":     id,
			"status": status,
		}).WithError(res.Error).Error("Failed to finalize copied trade")
		return res.Error
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "CopiedTradeRepository",
		"op":      "Finalize",
		"id":      id,
		"status":  status,
		"latency": executionTimeMs,
	}).Info("Copied trade finalized")

	return nil
}
