package market

// Account is a participant's trading account. Balance moves only when
// trades settle; equity, peak equity and drawdown are recomputed by the
// P&L pass.
type Account struct {
	ID             string
	ParticipantID  string
	Balance        float64
	Equity         float64
	PeakEquity     float64
	MaxDrawdownPct float64
	UsedMargin     float64
}

// FreeMargin is equity not tied up as margin.
func (a Account) FreeMargin() float64 {
	return a.Equity - a.UsedMargin
}

// MarginLevel is equity over used margin in percent, 0 with no margin used.
func (a Account) MarginLevel() float64 {
	if a.UsedMargin <= 0 {
		return 0
	}
	return a.Equity * 100 / a.UsedMargin
}
