package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultProvider is the generic provider assigned to unattributed free-text
// signals. Fingerprint inference only runs when the provider is this value or
// empty.
const DefaultProvider = "telegram"

// ParsedSignal is the best-effort extraction result. Fields the parser could
// not extract stay zero/nil; the caller decides whether the signal is usable.
type ParsedSignal struct {
	Action      string
	Symbol      string
	Entry       *float64
	StopLoss    *float64
	TakeProfits []float64
	Provider    string
}

var (
	symbolLabelRe = regexp.MustCompile(`(?i)\bsymbol\b\s*[:\-]?\s*#?([A-Za-z0-9]{2,15})`)

	// Common ticker shapes: known index/metal/futures names, crypto pairs,
	// six-letter FX pairs.
	tickerRe = regexp.MustCompile(`\b(XAUUSD|XAGUSD|US30|US100|US500|NAS100|SPX500|GER40|UK100|NQ\d*|ES\d*|YM\d*|BTCUSDT?|ETHUSDT?|[A-Z]{6})\b`)

	entryRe = regexp.MustCompile(`(?i)\bentry(?:\s*price)?\b\s*[:@\-]?\s*([\d,]+(?:\.\d+)?)`)
	slRe    = regexp.MustCompile(`(?i)\b(?:stop\s*loss|sl)\b\s*[:@\-]?\s*([\d,]+(?:\.\d+)?)`)
	tpRe    = regexp.MustCompile(`(?i)\b(?:take\s*profit|tp)\s*\d*\b\s*[:@\-]?\s*([\d,]+(?:\.\d+)?)`)
)

// providerFingerprints maps keyword sets to provider names. First fingerprint
// with any keyword present wins.
var providerFingerprints = []struct {
	provider string
	keywords []string
}{
	{"gold_signals", []string{"gold signal", "xau vip", "golden entry"}},
	{"forex_factory", []string{"forex factory", "ff signal"}},
	{"tradingview", []string{"tradingview", "tv alert"}},
	{"mql_signals", []string{"mql5", "metatrader signal"}},
}

/// ParseText extracts a trading signal from free text. It never fails: missing
// fields are simply absent in the result.
func ParseText(text string, provider string) ParsedSignal {
	out := ParsedSignal{Provider: provider}

	out.Action = parseAction(text)
	out.Symbol = parseSymbol(text)
	out.Entry = parseLabeledNumber(entryRe, text)
	out.StopLoss = parseLabeledNumber(slRe, text)
	out.TakeProfits = parseTakeProfits(text)

	if out.Provider == "" || out.Provider == DefaultProvider {
		out.Provider = inferProvider(text, out.Provider)
	}

	return out
}

// parseAction checks BUY markers before SELL markers; first match wins.
func parseAction(text string) string {
	upper := strings.ToUpper(text)

	switch {
	case strings.Contains(text, "🟢"), strings.Contains(upper, "BUY"), strings.Contains(text, "📈"):
		return "BUY"
	case strings.Contains(text, "🔴"), strings.Contains(upper, "SELL"), strings.Contains(text, "📉"):
		return "SELL"
	case strings.Contains(upper, "CLOSE"), strings.Contains(upper, "EXIT"):
		return "CLOSE"
	}
	return ""
}

func parseSymbol(text string) string {
	if m := symbolLabelRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := tickerRe.FindStringSubmatch(strings.ToUpper(text)); m != nil {
		return m[1]
	}
	return ""
}

func parseLabeledNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseTakeProfits(text string) []float64 {
	var tps []float64
	for _, m := range tpRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		tps = append(tps, v)
	}
	return tps
}

func inferProvider(text string, current string) string {
	lower := strings.ToLower(text)
	for _, fp := range providerFingerprints {
		for _, kw := range fp.keywords {
			if strings.Contains(lower, kw) {
				return fp.provider
			}
		}
	}
	if current != "" {
		return current
	}
	return DefaultProvider
}
