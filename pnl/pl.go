package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/arena/market"
)

// Mark is the revaluation of one open position.
type Mark struct {
	Price         float64
	UnrealizedPnL float64
}

// MarkPosition revalues pos against q. Longs mark at the bid and shorts
// at the ask, the price each would close at.
//
//	long:  (mark - entry) * quantity * contractSize
//	short: (entry - mark) * quantity * contractSize
func MarkPosition(pos market.Position, q market.Quote, inst market.Instrument) Mark {
	mark := q.MarkFor(pos.Side)
	return Mark{
		Price:         mark,
		UnrealizedPnL: UnrealizedPL(pos.Side, pos.EntryPrice, mark, pos.Quantity, inst.Multiplier()),
	}
}

func UnrealizedPL(side market.Side, entry, mark, quantity, contractSize float64) float64 {
	diff := decimal.NewFromFloat(mark).Sub(decimal.NewFromFloat(entry))
	if side == market.Short {
		diff = diff.Neg()
	}
	pl := diff.
		Mul(decimal.NewFromFloat(quantity)).
		Mul(decimal.NewFromFloat(contractSize))
	return pl.InexactFloat64()
}
