package model

import "time"

const (
	CopyStatusPending  = "pending"
	CopyStatusExecuted = "executed"
	CopyStatusPartial  = "partial"
	CopyStatusFailed   = "failed"
	CopyStatusRejected = "rejected"
)

// CopiedTrade records one copy attempt. Created pending, updated once to a
// terminal status, never re-opened.
type CopiedTrade struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID        uint `gorm:"index;not null" json:"user_id"`
	CopyParamsID  uint `gorm:"index;not null" json:"copy_params_id"`
	SourceTradeID uint `gorm:"index;not null" json:"source_trade_id"`

	// TargetTradeID is the broker-side identifier of the mirrored order.
	TargetTradeID string `gorm:"size:100" json:"target_trade_id,omitempty"`

	CopyStatus string `gorm:"size:20;not null;default:pending;index" json:"copy_status"`

	SlippagePips    float64 `json:"slippage_pips"`
	ExecutionTimeMs int64   `json:"execution_time_ms"`
	ErrorMessage    string  `gorm:"type:text" json:"error_message,omitempty"`

	OrderPayload string `gorm:"type:text" json:"order_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CopiedTrade) TableName() string {
	return "copied_trades"
}
