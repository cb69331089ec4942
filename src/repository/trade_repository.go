package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// TradeRepository handles read/write operations for canonical trades.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main database.
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FindByNaturalKey fetches a trade by its upsert identity
// (source, source_trade_id, owner). Returns (nil, nil) if not found.
func (r *TradeRepository) FindByNaturalKey(
	ctx context.Context,
	userID uint,
	source string,
	sourceTradeID string,
) (*model.Trade, error) {

	logger.WithFields(map[string]interface{}{
		"repo":            "TradeRepository",
		"op":              "FindByNaturalKey",
		"user_id":         userID,
		"source":          source,
		"source_trade_id": sourceTradeID,
	}).Debug("Fetching trade by natural key")

	var trade model.Trade
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source = ? AND source_trade_id = ?", userID, source, sourceTradeID).
		First(&trade).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":            "TradeRepository",
			"op":              "FindByNaturalKey",
			"source":          source,
			"source_trade_id": sourceTradeID,
		}).WithError(err).Error("Failed to fetch trade by natural key")

		return nil, err
	}

	return &trade, nil
}

// FindByIDAndUser fetches a trade scoped by owner. Returns (nil, nil) if the
// trade does not exist or belongs to another user.
func (r *TradeRepository) FindByIDAndUser(
	ctx context.Context,
	userID uint,
	id uint,
) (*model.Trade, error) {

	var trade model.Trade
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

// Create inserts a new trade.
func (r *TradeRepository) Create(ctx context.Context, trade *model.Trade) error {
	err := r.db.WithContext(ctx).Create(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "Create",
			"symbol": trade.Symbol,
		}).WithError(err).Error("Failed to create trade")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Create",
		"trade_id": trade.ID,
		"symbol":   trade.Symbol,
		"status":   trade.TradeStatus,
	}).Info("Trade created")

	return nil
}

// Save persists all fields of an existing trade (merge result of an upsert).
func (r *TradeRepository) Save(ctx context.Context, trade *model.Trade) error {
	err := r.db.WithContext(ctx).Save(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "Save",
			"trade_id": trade.ID,
		}).WithError(err).Error("Failed to save trade")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Save",
		"trade_id": trade.ID,
		"status":   trade.TradeStatus,
	}).Info("Trade updated")

	return nil
}
