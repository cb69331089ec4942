package repository

import (
	"context"

	"gorm.io/gorm"

	"tradesync/src/database"
	"tradesync/src/model"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository() *JournalRepository {
	return &JournalRepository{db: database.MainDB}
}

func (r *JournalRepository) WithDB(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
