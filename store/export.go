// store/export.go
package store

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var equityCSVHeader = []string{
	"time", "account_id", "balance", "equity", "peak_equity",
	"max_drawdown_pct", "used_margin", "free_margin", "margin_level",
}

// WriteEquityCSV writes snapshots as CSV with a header row.
func WriteEquityCSV(w io.Writer, snaps []EquitySnapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(equityCSVHeader); err != nil {
		return err
	}
	for _, e := range snaps {
		err := cw.Write([]string{
			e.Time.UTC().Format(time.RFC3339),
			e.AccountID,
			f(e.Balance),
			f(e.Equity),
			f(e.PeakEquity),
			f(e.MaxDrawdownPct),
			f(e.UsedMargin),
			f(e.FreeMargin),
			f(e.MarginLevel),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
