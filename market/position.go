package market

type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// Position is a holding owned by exactly one account.
type Position struct {
	ID           string
	AccountID    string
	InstrumentID string
	Side         Side
	Quantity     float64
	EntryPrice   float64
	StopLoss     *float64
	TakeProfit   *float64
	Status       PositionStatus

	CurrentPrice  float64
	UnrealizedPnL float64
}

func (p Position) IsOpen() bool {
	return p.Status == StatusOpen
}
