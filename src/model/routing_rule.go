package model

import "time"

const (
	RuleActionSendNotification   = "send_notification"
	RuleActionCreateJournalEntry = "create_journal_entry"
	RuleActionWebhook            = "webhook"
	RuleActionAPICall            = "api_call"
)

// RuleConditions are allow-list predicates evaluated against a signal. A
// predicate that is absent (nil/empty) passes; present predicates are ANDed.
type RuleConditions struct {
	Symbols       []string `json:"symbols,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	MinConfidence *int     `json:"min_confidence,omitempty"`
	MaxConfidence *int     `json:"max_confidence,omitempty"`
}

// RuleAction is one action executed when a rule matches. Template fields
// support {{field}} placeholder substitution against the signal.
type RuleAction struct {
	Type string `json:"type"`

	// send_notification / create_journal_entry
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`

	// webhook / api_call
	URL         string `json:"url,omitempty"`
	BearerToken string `json:"bearer_token,omitempty"`
}

// SignalRoutingRule is a per-user (conditions -> actions) policy. Rules are
// stateless and evaluated fresh per signal, higher priority first.
type SignalRoutingRule struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint   `gorm:"index;not null" json:"user_id"`
	Name   string `gorm:"size:100" json:"name"`

	Priority int  `gorm:"index;default:0" json:"priority"`
	Enabled  bool `gorm:"default:true;index" json:"enabled"`

	Conditions RuleConditions `gorm:"serializer:json" json:"conditions"`
	Actions    []RuleAction   `gorm:"serializer:json" json:"actions"`

	StopAfterMatch bool `gorm:"default:false" json:"stop_after_match"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SignalRoutingRule) TableName() string {
	return "signal_routing_rules"
}
