package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/store"
)

var hundred = decimal.NewFromInt(100)

// UpdateEquity folds one pass worth of unrealized P&L into the account's
// high-water marks. PeakEquity and MaxDrawdownPct never decrease.
func UpdateEquity(acct market.Account, unrealized float64) store.EquityUpdate {
	equity := decimal.NewFromFloat(acct.Balance).Add(decimal.NewFromFloat(unrealized))

	peak := decimal.NewFromFloat(acct.PeakEquity)
	if equity.GreaterThan(peak) {
		peak = equity
	}

	drawdown := drawdownPct(peak, equity)
	maxDD := decimal.NewFromFloat(acct.MaxDrawdownPct)
	if drawdown.GreaterThan(maxDD) {
		maxDD = drawdown
	}

	return store.EquityUpdate{
		Equity:         equity.InexactFloat64(),
		PeakEquity:     peak.InexactFloat64(),
		MaxDrawdownPct: maxDD.InexactFloat64(),
	}
}

// drawdownPct is the decline from peak in percent, zero without a
// positive peak.
func drawdownPct(peak, equity decimal.Decimal) decimal.Decimal {
	if !peak.IsPositive() {
		return decimal.Zero
	}
	return peak.Sub(equity).Div(peak).Mul(hundred)
}
