package model

import "time"

const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Trade is the canonical trade record. Identity for upsert is the natural key
// (source, source_trade_id, user_id); the composite unique index makes the
// upsert race safe under concurrent delivery.
//
// Exit fields are pointers so that an update event which omits them never
// clobbers previously known values.
type Trade struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID        uint   `gorm:"not null;uniqueIndex:idx_trades_natural_key" json:"user_id"`
	Source        string `gorm:"size:100;not null;uniqueIndex:idx_trades_natural_key" json:"source"`
	SourceTradeID string `gorm:"size:100;not null;uniqueIndex:idx_trades_natural_key" json:"source_trade_id"`

	ConnectionID *uint `gorm:"index" json:"connection_id,omitempty"`

	Symbol string `gorm:"size:50;index" json:"symbol"`
	Side   string `gorm:"size:10" json:"side"`

	EntryPrice *float64   `json:"entry_price,omitempty"`
	EntryTime  *time.Time `json:"entry_time,omitempty"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	ExitTime   *time.Time `json:"exit_time,omitempty"`

	Quantity   *float64 `json:"quantity,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	Commission *float64 `json:"commission,omitempty"`
	Swap       *float64 `json:"swap,omitempty"`
	Pnl        *float64 `json:"pnl,omitempty"`

	TradeStatus string `gorm:"size:20;not null;default:open;index" json:"trade_status"`

	// RawPayload keeps the original provider payload verbatim for audit.
	RawPayload string `gorm:"type:text" json:"raw_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}
