// market/instruments.go
package market

// Instrument is the slice of instrument metadata the engine needs.
// ContractSize scales P&L; zero or negative means unknown and is treated
// as 1.
type Instrument struct {
	ID           string  `json:"id" yaml:"id"`
	Symbol       string  `json:"symbol" yaml:"symbol"`
	ContractSize float64 `json:"contract_size" yaml:"contract_size"`
}

// Multiplier returns the contract size, defaulting to 1.
func (i Instrument) Multiplier() float64 {
	if i.ContractSize <= 0 {
		return 1
	}
	return i.ContractSize
}

// Instruments is the catalog used when seeding a new competition.
var Instruments = map[string]Instrument{
	"EURUSD": {Symbol: "EURUSD", ContractSize: 1},
	"GBPUSD": {Symbol: "GBPUSD", ContractSize: 1},
	"USDJPY": {Symbol: "USDJPY", ContractSize: 1},
	"AUDUSD": {Symbol: "AUDUSD", ContractSize: 1},
	"USDCHF": {Symbol: "USDCHF", ContractSize: 1},
	"USDCAD": {Symbol: "USDCAD", ContractSize: 1},
	"NZDUSD": {Symbol: "NZDUSD", ContractSize: 1},
	"XAUUSD": {Symbol: "XAUUSD", ContractSize: 100},
	"XAGUSD": {Symbol: "XAGUSD", ContractSize: 5000},
	"BTCUSD": {Symbol: "BTCUSD", ContractSize: 1},
	"ETHUSD": {Symbol: "ETHUSD", ContractSize: 1},
}
