package risk

import "strings"

// Pip sizes are fixed per instrument class. Cross-asset correctness is
// bounded by this table; per-instrument overrides belong here when a broker
// adapter needs them.
const (
	pipSizeForex = 0.0001
	pipSizeJPY   = 0.01
	pipSizeIndex = 0.1
)

var indexSymbols = []string{
	"XAU", "XAG",
	"US30", "US100", "US500", "NAS100", "SPX500", "GER40", "UK100",
	"NQ", "ES", "YM",
}

// PipSize returns the price value of one pip for a symbol.
func PipSize(symbol string) float64 {
	s := strings.ToUpper(symbol)

	for _, prefix := range indexSymbols {
		if strings.HasPrefix(s, prefix) {
			return pipSizeIndex
		}
	}
	if strings.HasSuffix(s, "JPY") {
		return pipSizeJPY
	}
	return pipSizeForex
}
