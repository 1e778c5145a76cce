package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	patchesApplied   prom.Counter
	stalePatches     prom.Counter
	applyDuration    prom.Histogram
	reconnects       prom.Counter
	requestTimeouts  *prom.CounterVec
	actionsSent      *prom.CounterVec
	transientExpired *prom.CounterVec
	connected        prom.Gauge
	journalAppends   *prom.CounterVec
	mirrorPublishes  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the dashsync metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}

	pr.patchesApplied = prom.NewCounter(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "patches_applied_total",
		Help:      "Bulk state patches merged into the document",
	})
	pr.stalePatches = prom.NewCounter(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "stale_patches_dropped_total",
		Help:      "Stamped patches discarded for arriving out of order",
	})
	pr.applyDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "dashsync",
		Name:      "patch_apply_duration_seconds",
		Help:      "Duration of bulk patch merges",
		Buckets:   prom.DefBuckets,
	})
	pr.reconnects = prom.NewCounter(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "reconnects_total",
		Help:      "Backend channel reconnect attempts",
	})
	pr.requestTimeouts = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "request_timeouts_total",
		Help:      "Correlated requests that exceeded their deadline",
	}, []string{"action"})
	pr.actionsSent = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "actions_sent_total",
		Help:      "Outbound actions by name",
	}, []string{"action"})
	pr.transientExpired = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "transient_errors_expired_total",
		Help:      "Transient error fields that self-cleared",
	}, []string{"field"})
	pr.connected = prom.NewGauge(prom.GaugeOpts{
		Namespace: "dashsync",
		Name:      "connected",
		Help:      "Whether the backend channel is currently established",
	})
	pr.journalAppends = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "journal_appends_total",
		Help:      "Journal append attempts by result",
	}, []string{"result"})
	pr.mirrorPublishes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "dashsync",
		Name:      "mirror_publishes_total",
		Help:      "NATS mirror publishes by result",
	}, []string{"result"})

	reg.MustRegister(
		pr.patchesApplied, pr.stalePatches, pr.applyDuration, pr.reconnects,
		pr.requestTimeouts, pr.actionsSent, pr.transientExpired, pr.connected,
		pr.journalAppends, pr.mirrorPublishes,
	)
	return pr
}

// Handler returns an HTTP handler exposing the registry.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}

func (pr *PrometheusRecorder) IncPatchApplied()      { pr.patchesApplied.Inc() }
func (pr *PrometheusRecorder) IncStalePatchDropped() { pr.stalePatches.Inc() }

func (pr *PrometheusRecorder) ObserveApplyDuration(d time.Duration) {
	pr.applyDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncReconnect() { pr.reconnects.Inc() }

func (pr *PrometheusRecorder) IncRequestTimeout(action string) {
	pr.requestTimeouts.WithLabelValues(action).Inc()
}

func (pr *PrometheusRecorder) IncActionSent(action string) {
	pr.actionsSent.WithLabelValues(action).Inc()
}

func (pr *PrometheusRecorder) IncTransientExpired(field string) {
	pr.transientExpired.WithLabelValues(field).Inc()
}

func (pr *PrometheusRecorder) SetConnected(connected bool) {
	if connected {
		pr.connected.Set(1)
	} else {
		pr.connected.Set(0)
	}
}

func (pr *PrometheusRecorder) IncJournalAppend(ok bool) {
	pr.journalAppends.WithLabelValues(resultLabel(ok)).Inc()
}

func (pr *PrometheusRecorder) IncMirrorPublish(ok bool) {
	pr.mirrorPublishes.WithLabelValues(resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
