package pricing

import (
	"strings"
	"time"

	"github.com/rustyeddy/arena/market"
)

type AssetClass string

const (
	Forex  AssetClass = "forex"
	Metal  AssetClass = "metal"
	Crypto AssetClass = "crypto"
	Index  AssetClass = "index"
)

var spreadPct = map[AssetClass]float64{
	Forex:  0.00015,
	Metal:  0.0003,
	Crypto: 0.001,
	Index:  0.0002,
}

func Classify(symbol string) AssetClass {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasPrefix(s, "XAU"), strings.HasPrefix(s, "XAG"):
		return Metal
	case strings.HasPrefix(s, "BTC"), strings.HasPrefix(s, "ETH"), strings.HasPrefix(s, "SOL"),
		strings.HasPrefix(s, "BNB"), strings.HasPrefix(s, "XRP"):
		return Crypto
	case s == "SPX", s == "NAS100", s == "US30", s == "US100", s == "US500":
		return Index
	}
	return Forex
}

// Spread is the full bid/ask width quoted around a mid price.
func Spread(symbol string, mid float64) float64 {
	return mid * spreadPct[Classify(symbol)]
}

// QuoteFromMid builds a quote centred on mid.
func QuoteFromMid(instrumentID, symbol string, mid float64, at time.Time) market.Quote {
	half := Spread(symbol, mid) / 2
	return market.Quote{
		InstrumentID: instrumentID,
		Price:        mid,
		Bid:          mid - half,
		Ask:          mid + half,
		Time:         at.UTC(),
	}
}
