package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "tournament_results"

type Metrics struct {
	Registry      *prometheus.Registry
	Fetches       *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	DroppedRecord prometheus.Counter
	LedgerTeams   prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_fetches_total",
			Help:      "Tournament result fetches by outcome (ok, cached, failed).",
		}, []string{"outcome"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_runs_total",
			Help:      "Aggregation runs by merge mode and outcome.",
		}, []string{"mode", "outcome"}),
		DroppedRecord: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_records_total",
			Help:      "Match records skipped because they carried no team identity.",
		}),
		LedgerTeams: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_teams",
			Help:      "Teams in the ledger after a merge.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		}),
	}
	reg.MustRegister(
		m.Fetches,
		m.Runs,
		m.DroppedRecord,
		m.LedgerTeams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
