// Package metrics дублирует счетчики прогона в prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"deviceRotate/internal/session"
)

const namespace = "device_rotate"

type Recorder struct {
	iterations *prometheus.CounterVec
	notFound   *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	active     prometheus.Gauge
}

// New регистрирует метрики в reg. Для тестов передавайте prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Completed device test sessions by outcome.",
		}, []string{"profile", "outcome"}),
		notFound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "not_found_total",
			Help:      "Sessions where the page was classified as not found.",
		}, []string{"profile"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_fallbacks_total",
			Help:      "Navigations accepted on DOMContentLoaded after a network-idle timeout.",
		}, []string{"profile"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time of a device test session including cleanup.",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180},
		}, []string{"profile"}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while a device test session is running.",
		}),
	}
}

func (r *Recorder) SessionStarted() {
	r.active.Set(1)
}

func (r *Recorder) SessionFinished() {
	r.active.Set(0)
}

func (r *Recorder) ObserveResult(res session.Result) {
	profile := res.Profile.Name
	r.iterations.WithLabelValues(profile, res.Outcome.String()).Inc()
	if res.Health == session.HealthNotFound {
		r.notFound.WithLabelValues(profile).Inc()
	}
	if res.FellBack {
		r.fallbacks.WithLabelValues(profile).Inc()
	}
	r.duration.WithLabelValues(profile).Observe(res.Duration.Seconds())
}
