package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// ConnectionRepository reads event-source connections.
type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{db: database.MainDB}
}

func (r *ConnectionRepository) WithDB(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// FindBySource fetches the connection registered for a source identifier
// regardless of its active flag. Returns (nil, nil) when no connection is
// registered for the source.
func (r *ConnectionRepository) FindBySource(
	ctx context.Context,
	source string,
) (*model.Connection, error) {

	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("source = ?", source).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// FindActiveBySource fetches the active connection registered for a source
// identifier. Returns (nil, nil) when no active connection matches.
func (r *ConnectionRepository) FindActiveBySource(
	ctx context.Context,
	source string,
) (*model.Connection, error) {

	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("source = ? AND active = ?", source, true).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// FindActiveByIDAndUser fetches an active connection scoped by owner.
// Returns (nil, nil) if missing, inactive, or owned by another user.
func (r *ConnectionRepository) FindActiveByIDAndUser(
	ctx context.Context,
	userID uint,
	id uint,
) (*model.Connection, error) {

	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}
