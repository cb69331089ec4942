package model

import "time"

// CopyParameters configures trade copying for one
// (source connection, target connection) pair of a user.
//
// TradesCopiedToday is only meaningful together with CopyEpoch: when the
// stored epoch is not the current UTC date the counter reads as zero, and
// both are reset atomically on the next successful copy.
type CopyParameters struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID             uint `gorm:"index;not null" json:"user_id"`
	SourceConnectionID uint `gorm:"index;not null" json:"source_connection_id"`
	TargetConnectionID uint `gorm:"index;not null" json:"target_connection_id"`

	Enabled bool `gorm:"default:true;index" json:"enabled"`

	RiskMultiplier  float64  `gorm:"default:1" json:"risk_multiplier"`
	MaxPositionSize *float64 `json:"max_position_size,omitempty"`
	MaxDailyTrades  *int     `json:"max_daily_trades,omitempty"`

	SymbolMapping  map[string]string `gorm:"serializer:json" json:"symbol_mapping,omitempty"`
	AllowedSymbols []string          `gorm:"serializer:json" json:"allowed_symbols,omitempty"`
	BlockedSymbols []string          `gorm:"serializer:json" json:"blocked_symbols,omitempty"`

	CopyStopLoss   bool `gorm:"default:true" json:"copy_stop_loss"`
	CopyTakeProfit bool `gorm:"default:true" json:"copy_take_profit"`

	AdjustSLOffsetPips float64 `json:"adjust_sl_offset_pips"`
	AdjustTPOffsetPips float64 `json:"adjust_tp_offset_pips"`
	MaxSlippagePips    float64 `json:"max_slippage_pips"`

	RequireConfirmation bool `gorm:"default:false" json:"require_confirmation"`

	TradesCopiedToday int        `gorm:"default:0" json:"trades_copied_today"`
	CopyEpoch         string     `gorm:"size:10" json:"copy_epoch,omitempty"` // UTC date "2006-01-02"
	LastCopyAt        *time.Time `json:"last_copy_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CopyParameters) TableName() string {
	return "copy_parameters"
}
