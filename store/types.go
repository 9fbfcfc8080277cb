package store

import (
	"time"

	"github.com/rustyeddy/arena/market"
)

// OpenPosition is an open position joined one-to-one with its instrument.
type OpenPosition struct {
	Position   market.Position
	Instrument market.Instrument
}

// OwnedPosition is an open position with the user that owns it through
// account -> participant -> user.
type OwnedPosition struct {
	Position market.Position
	UserID   string
}

// EquityUpdate is what a P&L pass writes back to an account.
type EquityUpdate struct {
	Equity         float64
	PeakEquity     float64
	MaxDrawdownPct float64
}

// EquitySnapshot is one row of account equity history.
type EquitySnapshot struct {
	AccountID      string
	Time           time.Time
	Balance        float64
	Equity         float64
	PeakEquity     float64
	MaxDrawdownPct float64
	UsedMargin     float64
	FreeMargin     float64
	MarginLevel    float64
}
