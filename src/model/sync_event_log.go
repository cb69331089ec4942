package model

import "time"

const (
	EventLogStatusPending   = "pending"
	EventLogStatusProcessed = "processed"
	EventLogStatusFailed    = "failed"
	EventLogStatusDuplicate = "duplicate"
)

// SyncEventLog is the idempotency ledger: one row per accepted inbound event.
// The composite unique index on (user_id, event_id) turns the admit step into
// an atomic insert-if-absent, so concurrent redeliveries cannot both win.
type SyncEventLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID  uint   `gorm:"not null;uniqueIndex:idx_event_logs_owner_event" json:"user_id"`
	EventID string `gorm:"size:128;not null;uniqueIndex:idx_event_logs_owner_event" json:"event_id"`

	EventType string `gorm:"size:30;index" json:"event_type"`
	Source    string `gorm:"size:100" json:"source"`

	Status string `gorm:"size:20;not null;default:pending;index" json:"status"`

	TradesCreated int `json:"trades_created"`
	TradesUpdated int `json:"trades_updated"`
	TradesSkipped int `json:"trades_skipped"`

	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SyncEventLog) TableName() string {
	return "sync_event_logs"
}
