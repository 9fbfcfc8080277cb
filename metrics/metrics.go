// Package metrics exposes Prometheus counters for mark-to-market passes
// and bracket edits.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rustyeddy/arena/pnl"
)

const namespace = "arena"

// Pass outcomes.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	passes           *prometheus.CounterVec
	positionsUpdated prometheus.Counter
	accountsUpdated  prometheus.Counter
	itemErrors       prometheus.Counter
	staleAccounts    prometheus.Counter
	passDuration     prometheus.Histogram
	bracketRequests  *prometheus.CounterVec
	priceRequests    *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "passes_total",
			Help: "Mark-to-market passes by outcome.",
		}, []string{"outcome"}),
		positionsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "positions_updated_total",
			Help: "Positions revalued.",
		}),
		accountsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "accounts_updated_total",
			Help: "Accounts whose equity was refreshed.",
		}),
		itemErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "item_errors_total",
			Help: "Per-position or per-account failures during passes.",
		}),
		staleAccounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "stale_accounts_total",
			Help: "Accounts with open positions left unrevalued.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pnl", Name: "pass_duration_seconds",
			Help:    "Wall time of mark-to-market passes.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		bracketRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "brackets", Name: "requests_total",
			Help: "Bracket edit requests by HTTP status.",
		}, []string{"status"}),
		priceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "prices", Name: "requests_total",
			Help: "Price lookup requests by HTTP status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.passes, m.positionsUpdated, m.accountsUpdated, m.itemErrors,
		m.staleAccounts, m.passDuration, m.bracketRequests, m.priceRequests,
	)
	return m
}

// ObservePass records one pass. It matches the pnl.WithObserver signature.
func (m *Metrics) ObservePass(res pnl.Result, err error) {
	m.passes.WithLabelValues(Outcome(res, err)).Inc()
	m.positionsUpdated.Add(float64(res.PositionsUpdated))
	m.accountsUpdated.Add(float64(res.AccountsUpdated))
	m.itemErrors.Add(float64(res.Errors))
	m.staleAccounts.Add(float64(len(res.StaleAccounts)))
	m.passDuration.Observe(res.Duration.Seconds())
}

func (m *Metrics) ObserveBracketRequest(status int) {
	m.bracketRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObservePriceRequest(status int) {
	m.priceRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func Outcome(res pnl.Result, err error) string {
	switch {
	case err != nil:
		return OutcomeFailed
	case res.Errors > 0:
		return OutcomePartial
	case res.PositionsUpdated == 0 && res.AccountsUpdated == 0:
		return OutcomeEmpty
	}
	return OutcomeOK
}
