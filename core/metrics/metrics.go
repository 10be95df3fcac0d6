package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Pass collects the counters of one reconciliation pass in a private registry.
// It implements reconcile.Recorder.
type Pass struct {
	registry *prometheus.Registry

	requests prometheus.Counter
	records  prometheus.Counter
	commits  prometheus.Counter
	waits    prometheus.Counter
	missing  *prometheus.GaugeVec
}

// NewPass creates the counters of a pass. Mode and run id are attached as constant labels.
func NewPass(mode, runID string) *Pass {
	labels := prometheus.Labels{"mode": mode, "run_id": runID}
	p := &Pass{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booru_sync_requests_total",
			Help:        "Remote requests completed successfully.",
			ConstLabels: labels,
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booru_sync_fetched_records_total",
			Help:        "Records returned by the remote source.",
			ConstLabels: labels,
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booru_sync_window_commits_total",
			Help:        "Committed window transactions.",
			ConstLabels: labels,
		}),
		waits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booru_sync_rate_limit_waits_total",
			Help:        "Times the rate limiter had to roll over to a new window.",
			ConstLabels: labels,
		}),
		missing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "booru_sync_missing",
			Help:        "Missing data found by the analysis, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
	p.registry.MustRegister(p.requests, p.records, p.commits, p.waits, p.missing)
	return p
}

func (p *Pass) RequestDone(records int) {
	p.requests.Inc()
	p.records.Add(float64(records))
}

func (p *Pass) WindowCommitted() { p.commits.Inc() }

func (p *Pass) WindowWaited() { p.waits.Inc() }

// SetMissing records the analysis totals.
func (p *Pass) SetMissing(ranges int, ids uint64, revisions int) {
	p.missing.WithLabelValues("ranges").Set(float64(ranges))
	p.missing.WithLabelValues("ids").Set(float64(ids))
	p.missing.WithLabelValues("revisions").Set(float64(revisions))
}

// WriteTextfile writes the counters in the Prometheus text format, for the
// node exporter textfile collector. The file is replaced atomically.
func (p *Pass) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
