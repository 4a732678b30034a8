// Package metrics records one run's counters and pushes them to a
// Pushgateway, the usual arrangement for a job that exits before any
// scraper could reach it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for one s2f run.
type Metrics struct {
	OpportunitiesSeen    prometheus.Counter
	OpportunitiesNew     prometheus.Counter
	OpportunitiesChanged prometheus.Counter
	ChatterItems         prometheus.Counter
	PostsSucceeded       prometheus.Counter
	PostsFailed          prometheus.Counter

	RunDurationSecs  prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	LastRunStatus    prometheus.Gauge // 0 = unknown, 1 = success, 2 = failure

	registry *prometheus.Registry
	pusher   *push.Pusher
}

// New creates the metrics on a private registry. An empty pushgatewayURL
// disables pushing; the counters still work as in-process tallies.
func New(pushgatewayURL string) *Metrics {
	m := &Metrics{
		OpportunitiesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_opportunities_seen_total",
			Help: "Total number of opportunity records fetched",
		}),
		OpportunitiesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_opportunities_new_total",
			Help: "Total number of new opportunities detected",
		}),
		OpportunitiesChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_opportunities_changed_total",
			Help: "Total number of changed opportunities detected",
		}),
		ChatterItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_chatter_items_total",
			Help: "Total number of opportunity chatter items fetched",
		}),
		PostsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_posts_succeeded_total",
			Help: "Total number of messages delivered to Flowdock",
		}),
		PostsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s2f_posts_failed_total",
			Help: "Total number of messages that failed to deliver",
		}),
		RunDurationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "s2f_run_duration_seconds",
			Help:    "Duration of the poll-and-post run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "s2f_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last run",
		}),
		LastRunStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "s2f_last_run_status",
			Help: "Status of the last run (1 = success, 2 = failure)",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.OpportunitiesSeen,
		m.OpportunitiesNew,
		m.OpportunitiesChanged,
		m.ChatterItems,
		m.PostsSucceeded,
		m.PostsFailed,
		m.RunDurationSecs,
		m.LastRunTimestamp,
		m.LastRunStatus,
	)

	if pushgatewayURL != "" {
		m.pusher = push.New(pushgatewayURL, "s2f").Gatherer(m.registry)
	}

	return m
}

// FinishRun records the outcome and duration of the run.
func (m *Metrics) FinishRun(start time.Time, err error) {
	m.RunDurationSecs.Observe(time.Since(start).Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
	if err != nil {
		m.LastRunStatus.Set(2)
	} else {
		m.LastRunStatus.Set(1)
	}
}

// Push sends the run's metrics to the Pushgateway, if one is configured.
func (m *Metrics) Push() error {
	if m.pusher == nil {
		return nil
	}
	return m.pusher.Push()
}
