package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics tracks commits and waiting associations for one process. Wire it
// into a builder with canopy.WithMetrics.
type Metrics struct {
	commitsTotal    *prometheus.CounterVec
	assignedTotal   *prometheus.CounterVec
	releasedTotal   prometheus.Counter
	waitingOpen     prometheus.Gauge
	commitFailures  prometheus.Counter
	finalizeSeconds prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_commits_total",
			Help: "Total number of committed elements",
		}, []string{"role"}),
		assignedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_waiting_assigned_total",
			Help: "Total number of waiting assignments",
		}, []string{"superseded"}),
		releasedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_waiting_released_total",
			Help: "Total number of dissolved waiting associations",
		}),
		waitingOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_waiting_open",
			Help: "Associations currently held open",
		}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_commit_failures_total",
			Help: "Commit attempts rejected by the sink",
		}),
		finalizeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_finalize_duration_seconds",
			Help:    "Time spent committing the remaining tree at finalization",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.commitsTotal, m.assignedTotal, m.releasedTotal, m.waitingOpen, m.commitFailures, m.finalizeSeconds)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
//
// The gauge arithmetic leans on the hook contract: a superseding assign
// replaces one association with another (net zero), and every dissolution
// fires exactly one release event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.commitsTotal.WithLabelValues(string(e.Role)).Inc()
		},
		OnWaitingAssign: func(_ context.Context, e *domain.WaitingEvent) {
			m.assignedTotal.WithLabelValues(strconv.FormatBool(e.Superseded)).Inc()
			if !e.Superseded {
				m.waitingOpen.Inc()
			}
		},
		OnWaitingRelease: func(_ context.Context, _ *domain.WaitingEvent) {
			m.releasedTotal.Inc()
			m.waitingOpen.Dec()
		},
	}
}

// CommitFailure counts a sink rejection. The Builder calls it whenever a
// flush, release, or finalize cascade fails; the tree itself does not
// report failures through hooks.
func (m *Metrics) CommitFailure() {
	m.commitFailures.Inc()
}

// ObserveFinalize records how long a successful finalization took.
func (m *Metrics) ObserveFinalize(d time.Duration) {
	m.finalizeSeconds.Observe(d.Seconds())
}
