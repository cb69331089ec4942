package model

import "time"

const (
	SignalActionBuy   = "BUY"
	SignalActionSell  = "SELL"
	SignalActionClose = "CLOSE"
)

const (
	SignalStatusNew      = "new"
	SignalStatusExecuted = "executed"
	SignalStatusRejected = "rejected"
)

// Signal is one accepted trading idea. Signals are never merged: every
// accepted SIGNAL event inserts a new row even when symbol and action repeat.
// Status moves new -> executed|rejected exactly once.
type Signal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Symbol string `gorm:"size:50;index;not null" json:"symbol"`
	Action string `gorm:"size:10;not null" json:"action"`

	Price       *float64  `json:"price,omitempty"`
	StopLoss    *float64  `json:"stop_loss,omitempty"`
	TakeProfits []float64 `gorm:"serializer:json" json:"take_profits,omitempty"`

	Provider   string `gorm:"size:50;index" json:"provider"`
	Confidence int    `gorm:"default:50" json:"confidence"` // 0-100
	Status     string `gorm:"size:20;not null;default:new;index" json:"status"`

	RawData string `gorm:"type:text" json:"raw_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Signal) TableName() string {
	return "signals"
}
