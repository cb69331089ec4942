package risk

import (
	"strings"
	"time"

	"tradesync/src/model"
	"tradesync/src/utils"
)

// SymbolAllowed checks the allow/block lists of a copy configuration.
// An empty allow list admits every symbol; the block list always wins.
func SymbolAllowed(symbol string, allowed, blocked []string) bool {
	s := strings.ToUpper(symbol)

	for _, b := range blocked {
		if strings.EqualFold(b, s) {
			return false
		}
	}

	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return true
		}
	}
	return false
}

// CopiesToday reads the daily counter against the stored epoch: a counter
// whose epoch is not today's UTC date has implicitly reset to zero.
func CopiesToday(params *model.CopyParameters, now time.Time) int {
	if params.CopyEpoch != utils.UTCDate(now) {
		return 0
	}
	return params.TradesCopiedToday
}

// DailyLimitReached reports whether another copy would exceed max_daily_trades.
// A nil limit means unlimited.
func DailyLimitReached(params *model.CopyParameters, now time.Time) bool {
	if params.MaxDailyTrades == nil {
		return false
	}
	return CopiesToday(params, now) >= *params.MaxDailyTrades
}

// MapSymbol resolves the target symbol through the configured mapping,
// identity when absent.
func MapSymbol(symbol string, mapping map[string]string) string {
	if mapping == nil {
		return symbol
	}
	if mapped, ok := mapping[symbol]; ok && mapped != "" {
		return mapped
	}
	return symbol
}
