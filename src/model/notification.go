package model

import "time"

// Notification is a user-visible alert created by the routing rule engine or
// the copy engine. The dashboard lists them; the stream endpoint pushes them.
type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Title   string `gorm:"size:200" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Kind    string `gorm:"size:50;index" json:"kind"` // "signal", "copy_trade", ...

	Read bool `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
