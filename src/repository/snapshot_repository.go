package repository

import (
	"context"

	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

// SnapshotRepository handles append-only account snapshots.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{db: database.MainDB}
}

func (r *SnapshotRepository) WithDB(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create appends a snapshot row. Snapshots have no natural key and are never
// merged.
func (r *SnapshotRepository) Create(ctx context.Context, snapshot *model.AccountSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
