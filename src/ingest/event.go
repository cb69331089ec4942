package ingest

import "encoding/json"

const (
	EventTypeTradeUpsert    = "TRADE_UPSERT"
	EventTypeSnapshotUpsert = "SNAPSHOT_UPSERT"
	EventTypeSignal         = "SIGNAL"
)

// InboundEvent is the internal contract every event producer honors: the HMAC
// webhook, the copy engine's re-emitted trade.opened events, and statement
// imports all submit this shape. EventID is the caller-chosen idempotency key,
// globally unique per source.
type InboundEvent struct {
	EventID      string `json:"eventId"`
	EventType    string `json:"eventType"`
	Source       string `json:"source"`
	ConnectionID *uint  `json:"connectionId,omitempty"`
	Provider     string `json:"provider,omitempty"`

	// Exactly one of these carries the payload, depending on EventType.
	// Payloads stay raw maps until alias resolution because every provider
	// names its fields differently.
	Trade    Payload   `json:"trade,omitempty"`
	Trades   []Payload `json:"trades,omitempty"`
	Snapshot Payload   `json:"snapshot,omitempty"`
	Signal   Payload   `json:"signal,omitempty"`
}

// TradePayloads returns the trade payloads of the event regardless of whether
// the caller used the single-trade or batch field.
func (e *InboundEvent) TradePayloads() []Payload {
	if len(e.Trades) > 0 {
		return e.Trades
	}
	if e.Trade != nil {
		return []Payload{e.Trade}
	}
	return nil
}

// RawJSON serializes a payload back to its JSON form for raw_payload storage.
func RawJSON(p Payload) string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
