package model

import "time"

// JournalEntry is a free-form journal record. The routing engine writes one
// per matched create_journal_entry action; the rest of the journal UI is
// plain CRUD over this table.
type JournalEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Title   string `gorm:"size:200" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	Symbol  string `gorm:"size:50;index" json:"symbol,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
