package readout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "stripreadout"

	DropUnknownSensor     = "unknown_sensor"
	DropChannelOutOfRange = "channel_out_of_range"
	DropInvalidDeposit    = "invalid"
)

// Metrics holds the diagnostic counters of the readout simulation.
type Metrics struct {
	SubEvents       prometheus.Counter
	Triggers        prometheus.Counter
	PulsesCreated   prometheus.Counter
	PulsesEvicted   prometheus.Counter
	DepositsDropped *prometheus.CounterVec
	HitsAssembled   prometheus.Counter
	HitsEmitted     prometheus.Counter
	HitsRejected    *prometheus.CounterVec
	Relations       prometheus.Counter
	BufferedPulses  prometheus.Gauge
	ActiveChannels  prometheus.Gauge
	ReadoutDuration prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subevents_total",
			Help:      "Sub-events processed.",
		}),
		Triggers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "triggers_total",
			Help:      "Triggers read out.",
		}),
		PulsesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pulses_created_total",
			Help:      "Pulses created from collected charge.",
		}),
		PulsesEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pulses_evicted_total",
			Help:      "Pulses dropped from the pipelines after the pileup window.",
		}),
		DepositsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deposits_dropped_total",
			Help:      "Truth hits discarded before charge deposition, by reason.",
		}, []string{"reason"}),
		HitsAssembled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_assembled_total",
			Help:      "Channel digitizations assembled.",
		}),
		HitsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_emitted_total",
			Help:      "Digitizations passing the readout cuts.",
		}),
		HitsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_rejected_total",
			Help:      "Digitizations rejected, by cut.",
		}, []string{"cut"}),
		Relations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "truth_relations_total",
			Help:      "Digitization to truth hit relations emitted.",
		}),
		BufferedPulses: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "buffered_pulses",
			Help:      "Pulses waiting in the pipelines.",
		}),
		ActiveChannels: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_channels",
			Help:      "Channels with at least one buffered pulse.",
		}),
		ReadoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "readout_duration_seconds",
			Help:      "Wall time spent assembling and filtering one readout.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
}
