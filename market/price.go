package market

import "time"

// Quote is the latest known price snapshot for one instrument.
type Quote struct {
	InstrumentID string    `json:"instrument_id"`
	Price        float64   `json:"price"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Time         time.Time `json:"time"`
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// MarkFor returns the side of the spread a position would close against:
// longs sell at the bid, shorts buy back at the ask.
func (q Quote) MarkFor(side Side) float64 {
	if side == Short {
		return q.Ask
	}
	return q.Bid
}
