package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"remindflow/internal/scheduler"
)

// Observer exports reminder lifecycle metrics to Prometheus. A nil
// *Observer is valid and records nothing.
type Observer struct {
	created          prometheus.Counter
	rejected         *prometheus.CounterVec
	cancelled        prometheus.Counter
	fired            prometheus.Counter
	deliveryFailures prometheus.Counter
	armed            prometheus.Gauge
	deliveryDuration prometheus.Histogram
}

// New registers the reminder metrics on reg.
func New(namespace string, reg prometheus.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = "remindflow"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Reminders accepted and scheduled.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_rejected_total",
			Help:      "Reminder requests refused, by reason.",
		}, []string{"reason"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_cancelled_total",
			Help:      "Reminders cancelled by their owner.",
		}),
		fired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminders whose timer fired.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Fired reminders whose notification failed.",
		}),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "armed_timers",
			Help:      "Timers waiting to fire.",
		}),
		deliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering one fired reminder.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	collectors := []prometheus.Collector{o.created, o.rejected, o.cancelled, o.fired, o.deliveryFailures, o.armed, o.deliveryDuration}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register reminder metric: %w", err)
		}
	}
	return o, nil
}

func (o *Observer) Created() {
	if o == nil {
		return
	}
	o.created.Inc()
}

func (o *Observer) Rejected(reason string) {
	if o == nil {
		return
	}
	o.rejected.WithLabelValues(reason).Inc()
}

func (o *Observer) Cancelled() {
	if o == nil {
		return
	}
	o.cancelled.Inc()
}

func (o *Observer) Delivered(d time.Duration) {
	if o == nil {
		return
	}
	o.deliveryDuration.Observe(d.Seconds())
}

// Armed implements scheduler.Observer.
func (o *Observer) Armed(n int) {
	if o == nil {
		return
	}
	o.armed.Set(float64(n))
}

// Fired implements scheduler.Observer.
func (o *Observer) Fired(job scheduler.Job, err error) {
	if o == nil {
		return
	}
	o.fired.Inc()
	if err != nil {
		o.deliveryFailures.Inc()
	}
}
