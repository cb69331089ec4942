package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// RoutingRuleRepository reads a user's signal routing rules.
type RoutingRuleRepository struct {
	db *gorm.DB
}

func NewRoutingRuleRepository() *RoutingRuleRepository {
	return &RoutingRuleRepository{db: database.MainDB}
}

func (r *RoutingRuleRepository) WithDB(db *gorm.DB) *RoutingRuleRepository {
	return &RoutingRuleRepository{db: db}
}

// FindEnabledByUser returns the user's enabled rules, highest priority first.
// Ties break on id so evaluation order is deterministic.
func (r *RoutingRuleRepository) FindEnabledByUser(
	ctx context.Context,
	userID uint,
) ([]model.SignalRoutingRule, error) {

	var rules []model.SignalRoutingRule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "RoutingRuleRepository",
			"op":      "FindEnabledByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch routing rules")
		return nil, err
	}

	return rules, nil
}
