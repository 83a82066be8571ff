// Package metrics exposes Prometheus instrumentation for channel syncs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"github.com/roach88/chansync/internal/channel"
	"github.com/roach88/chansync/internal/store"
)

const namespace = "chansync"

// Result label values for SyncRunsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	// SyncRunsTotal counts SyncChannels calls by result.
	SyncRunsTotal *prometheus.CounterVec

	// ChannelsReconciledTotal counts per-channel outcomes by action.
	ChannelsReconciledTotal *prometheus.CounterVec

	// SyncDuration observes SyncChannels latency.
	SyncDuration prometheus.Histogram

	// Channels is the number of stored channels per state.
	Channels *prometheus.GaugeVec

	// LastSyncTimestamp is the unix time of the last successful sync.
	LastSyncTimestamp prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SyncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of channel sync passes",
		}, []string{"result"}),
		ChannelsReconciledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_reconciled_total",
			Help:      "Total number of channel rows written by sync passes",
		}, []string{"action"}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Channel sync pass duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Channels: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channels",
			Help:      "Number of stored channels by state",
		}, []string{"state"}),
		LastSyncTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last successful sync pass",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSync records the outcome of one SyncChannels call.
func (m *Metrics) ObserveSync(report store.SyncReport, elapsed time.Duration, err error) {
	m.SyncDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.SyncRunsTotal.WithLabelValues(ResultError).Inc()
		return
	}

	m.SyncRunsTotal.WithLabelValues(ResultOK).Inc()
	m.ChannelsReconciledTotal.WithLabelValues("insert").Add(float64(report.Inserted))
	m.ChannelsReconciledTotal.WithLabelValues("refresh").Add(float64(report.Refreshed))
	m.ChannelsReconciledTotal.WithLabelValues("first_close").Add(float64(report.FirstClosed))
	m.ChannelsReconciledTotal.WithLabelValues("swept").Add(float64(report.Swept))
	m.LastSyncTimestamp.Set(float64(report.SyncedAt.Unix()))
}

// SetChannels sets the per-state gauge from a full channel listing.
// States with no channels are reported as zero.
func (m *Metrics) SetChannels(channels []channel.Channel) {
	counts := lo.CountValuesBy(channels, func(c channel.Channel) channel.State {
		return c.State
	})
	for _, state := range channel.States {
		m.Channels.WithLabelValues(state.String()).Set(float64(counts[state]))
	}
}

// WriteTextfile writes every collector to path in the text exposition
// format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
