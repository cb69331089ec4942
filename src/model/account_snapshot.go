package model

import "time"

// AccountSnapshot is a point-in-time balance/equity record. Append-only:
// every snapshot event yields a new row, there is no natural key.
type AccountSnapshot struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID       uint   `gorm:"index;not null" json:"user_id"`
	ConnectionID *uint  `gorm:"index" json:"connection_id,omitempty"`
	Source       string `gorm:"size:100;index" json:"source"`

	Balance    *float64 `json:"balance,omitempty"`
	Equity     *float64 `json:"equity,omitempty"`
	Drawdown   *float64 `json:"drawdown,omitempty"`
	MarginUsed *float64 `json:"margin_used,omitempty"`

	SnapshotAt time.Time `gorm:"index" json:"snapshot_at"`
	RawPayload string    `gorm:"type:text" json:"raw_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (AccountSnapshot) TableName() string {
	return "account_snapshots"
}
