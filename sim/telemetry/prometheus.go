// Package telemetry exports simulation events as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	sim "github.com/inference-sim/service-sim/sim"
)

const namespace = "servicesim"

// PrometheusObserver is a sim.Observer that counts requests per class and
// stage, records stage latencies, and tracks queue depths.
type PrometheusObserver struct {
	generated  *prometheus.CounterVec
	processed  *prometheus.CounterVec
	forwarded  prometheus.Counter
	latency    *prometheus.HistogramVec
	queueDepth *prometheus.GaugeVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_generated_total",
			Help:      "Requests generated, by class",
		}, []string{"class"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_processed_total",
			Help:      "Requests processed, by stage and class",
		}, []string{"stage", "class"}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_forwarded_total",
			Help:      "Requests forwarded from the regular stage to the additional service stage",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Time from request creation to stage completion",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting in a stage queue",
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{o.generated, o.processed, o.forwarded, o.latency, o.queueDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent implements sim.Observer.
func (o *PrometheusObserver) OnEvent(e sim.Event) {
	switch e.Kind {
	case sim.EventGenerated:
		o.generated.WithLabelValues(string(e.Request.Class)).Inc()
	case sim.EventProcessed:
		o.processed.WithLabelValues(string(e.Stage), string(e.Request.Class)).Inc()
		o.latency.WithLabelValues(string(e.Stage)).Observe(e.Request.Latency(e.Stage).Seconds())
	case sim.EventForwarded:
		o.forwarded.Inc()
	}
	o.queueDepth.WithLabelValues(string(e.Stage)).Set(float64(e.QueueDepth))
}
