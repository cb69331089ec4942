package model

import "time"

// Connection represents one external event source for a user: a broker sync
// agent, a TradingView alert route, a Telegram bridge. The shared secret signs
// inbound webhook payloads for this connection.
type Connection struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	Name     string `gorm:"size:100" json:"name"`
	Provider string `gorm:"size:50;index" json:"provider"` // e.g. "mt5", "tradingview", "telegram"
	Source   string `gorm:"size:100;index" json:"source"`  // caller-facing source identifier

	SharedSecret string `gorm:"size:128" json:"-"`
	Active       bool   `gorm:"default:true;index" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Connection) TableName() string {
	return "connections"
}
