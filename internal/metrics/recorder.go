// Package metrics exposes sync run metrics through Prometheus.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/forecast-sync/internal/weather"
)

// PrometheusRecorder implements weather.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	syncDuration   *prom.HistogramVec
	syncOutcomes   *prom.CounterVec
	storedRecords  prom.Gauge
	notifications  prom.Counter
	deviceFailures prom.Counter
	lastSuccess    prom.Gauge
}

var _ weather.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers the sync metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "forecast_sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of sync runs by final state",
		Buckets:   prom.DefBuckets,
	}, []string{"state"})
	pr.syncOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "forecast_sync",
		Name:      "runs_total",
		Help:      "Sync runs by final state and error kind",
	}, []string{"state", "kind"})
	pr.storedRecords = prom.NewGauge(prom.GaugeOpts{
		Namespace: "forecast_sync",
		Name:      "stored_records",
		Help:      "Number of forecast records stored by the last replacement",
	})
	pr.notifications = prom.NewCounter(prom.CounterOpts{
		Namespace: "forecast_sync",
		Name:      "notifications_total",
		Help:      "Forecast notifications dispatched",
	})
	pr.deviceFailures = prom.NewCounter(prom.CounterOpts{
		Namespace: "forecast_sync",
		Name:      "device_send_failures_total",
		Help:      "Failed secondary-device hand-offs",
	})
	pr.lastSuccess = prom.NewGauge(prom.GaugeOpts{
		Namespace: "forecast_sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last run that ended in state done",
	})
	reg.MustRegister(pr.syncDuration, pr.syncOutcomes, pr.storedRecords, pr.notifications, pr.deviceFailures, pr.lastSuccess)
	return pr
}

func (p *PrometheusRecorder) ObserveSync(state weather.State, kind weather.ErrorKind, d time.Duration) {
	if p == nil || p.syncOutcomes == nil {
		return
	}
	k := string(kind)
	if k == "" {
		k = "none"
	}
	p.syncDuration.WithLabelValues(string(state)).Observe(d.Seconds())
	p.syncOutcomes.WithLabelValues(string(state), k).Inc()
	if state == weather.StateDone {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) SetStoredRecords(n int) {
	if p == nil || p.storedRecords == nil {
		return
	}
	p.storedRecords.Set(float64(n))
}

func (p *PrometheusRecorder) IncNotifications() {
	if p == nil || p.notifications == nil {
		return
	}
	p.notifications.Inc()
}

func (p *PrometheusRecorder) IncDeviceSendFailures() {
	if p == nil || p.deviceFailures == nil {
		return
	}
	p.deviceFailures.Inc()
}
