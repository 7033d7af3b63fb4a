package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики конвейера чекаута.
type CheckoutMetrics struct {
	checkoutStarted   prometheus.Counter
	checkoutCompleted prometheus.Counter
	checkoutFailed    *prometheus.CounterVec

	fulfillmentFailures  prometheus.Counter
	notificationFailures prometheus.Counter

	checkoutDuration prometheus.Histogram
	stageDuration    *prometheus.HistogramVec

	activeCheckouts prometheus.Gauge
}

// NewCheckoutMetrics регистрирует метрики в default registerer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_checkout_started_total",
			Help: "Total number of checkout attempts started",
		}),
		checkoutCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_checkout_completed_total",
			Help: "Total number of checkout attempts completed successfully",
		}),
		checkoutFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "store_checkout_failed_total",
			Help: "Total number of checkout attempts failed, by reason",
		}, []string{"reason"}),
		fulfillmentFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_fulfillment_failures_total",
			Help: "Total number of fulfillment order creations that failed after a confirmed payment",
		}),
		notificationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_receipt_failures_total",
			Help: "Total number of receipt notifications that failed",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "store_checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stageDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "store_checkout_stage_duration_seconds",
			Help:    "Duration of individual checkout stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}, []string{"stage"}),
		activeCheckouts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "store_active_checkouts",
			Help: "Number of currently active checkout attempts",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик запущенных чекаутов.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
	m.activeCheckouts.Inc()
}

// RecordCheckoutCompleted увеличивает счётчик успешных чекаутов.
func (m *CheckoutMetrics) RecordCheckoutCompleted() {
	m.checkoutCompleted.Inc()
}

// RecordCheckoutFailed увеличивает счётчик отказов с меткой причины.
func (m *CheckoutMetrics) RecordCheckoutFailed(reason string) {
	m.checkoutFailed.WithLabelValues(reason).Inc()
}

// RecordCheckoutFinished уменьшает количество активных чекаутов.
func (m *CheckoutMetrics) RecordCheckoutFinished() {
	m.activeCheckouts.Dec()
}

// RecordFulfillmentFailure увеличивает счётчик провалов провайдера печати.
func (m *CheckoutMetrics) RecordFulfillmentFailure() {
	m.fulfillmentFailures.Inc()
}

// RecordNotificationFailure увеличивает счётчик провалов отправки чека.
func (m *CheckoutMetrics) RecordNotificationFailure() {
	m.notificationFailures.Inc()
}

// RecordCheckoutDuration записывает длительность чекаута.
func (m *CheckoutMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordStageDuration записывает длительность этапа.
func (m *CheckoutMetrics) RecordStageDuration(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}
