package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payload is one provider-shaped object. Providers disagree on field names
// (entryTime vs openTime, qty vs quantity vs volume), so every accessor walks
// an ordered alias list: first non-null wins.
type Payload map[string]interface{}

func (p Payload) String(keys ...string) string {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			return t.String()
		}
	}
	return ""
}

func (p Payload) Float(keys ...string) *float64 {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			f := t
			return &f
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return &f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.ReplaceAll(t, ",", ""), 64); err == nil {
				return &f
			}
		case int:
			f := float64(t)
			return &f
		}
	}
	return nil
}

func (p Payload) Int(keys ...string) *int {
	if f := p.Float(keys...); f != nil {
		i := int(*f)
		return &i
	}
	return nil
}

// Time accepts RFC3339 strings, "2006-01-02 15:04:05", and unix seconds.
func (p Payload) Time(keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return &parsed
				}
			}
		case float64:
			parsed := time.Unix(int64(t), 0).UTC()
			return &parsed
		case json.Number:
			if sec, err := t.Int64(); err == nil {
				parsed := time.Unix(sec, 0).UTC()
				return &parsed
			}
		}
	}
	return nil
}

func (p Payload) FloatSlice(keys ...string) []float64 {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case []interface{}:
			var out []float64
			for _, item := range t {
				switch n := item.(type) {
				case float64:
					out = append(out, n)
				case json.Number:
					if f, err := n.Float64(); err == nil {
						out = append(out, f)
					}
				case string:
					if f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64); err == nil {
						out = append(out, f)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case float64:
			return []float64{t}
		}
	}
	return nil
}

// Field alias tables, ordered by how commonly providers use each name.
var (
	aliasTradeID    = []string{"sourceTradeId", "tradeId", "ticket", "positionId", "orderId", "id", "trade_id", "source_trade_id"}
	aliasSymbol     = []string{"symbol", "ticker", "instrument", "pair"}
	aliasSide       = []string{"side", "direction", "type", "action"}
	aliasEntryPrice = []string{"entryPrice", "openPrice", "entry_price", "open_price", "price"}
	aliasEntryTime  = []string{"entryTime", "openTime", "entry_time", "open_time"}
	aliasExitPrice  = []string{"exitPrice", "closePrice", "exit_price", "close_price"}
	aliasExitTime   = []string{"exitTime", "closeTime", "exit_time", "close_time"}
	aliasQuantity   = []string{"qty", "quantity", "volume", "lots", "size"}
	aliasStopLoss   = []string{"stopLoss", "sl", "stop_loss"}
	aliasTakeProfit = []string{"takeProfit", "tp", "take_profit"}
	aliasCommission = []string{"commission", "fee", "fees"}
	aliasSwap       = []string{"swap", "rollover"}
	aliasPnl        = []string{"pnl", "profit", "netProfit", "net_profit"}
	aliasStatus     = []string{"tradeStatus", "status", "state", "trade_status"}

	aliasBalance    = []string{"balance", "accountBalance", "account_balance"}
	aliasEquity     = []string{"equity", "accountEquity", "account_equity"}
	aliasDrawdown   = []string{"drawdown", "maxDrawdown", "max_drawdown"}
	aliasMarginUsed = []string{"marginUsed", "margin", "margin_used"}
	aliasSnapshotAt = []string{"snapshotAt", "timestamp", "time", "snapshot_at"}

	aliasSignalPrice = []string{"price", "entry", "close", "entryPrice", "entry_price"}
	aliasConfidence  = []string{"confidence", "score"}
	aliasProvider    = []string{"provider", "strategy", "source"}
	aliasTakeProfits = []string{"takeProfits", "take_profits", "tps", "targets"}
)
