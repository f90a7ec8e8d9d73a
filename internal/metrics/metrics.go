package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webtest"

var (
	metricTests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tests_total",
		Help:      "Executed test instances by final status.",
	}, []string{"status"})
	metricTestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "test_duration_seconds",
		Help:      "Wall time of a test instance including setup and teardown.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	metricSteps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "steps_total",
		Help:      "Steps appended to execution logs.",
	})
	metricScreenshots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screenshots_total",
		Help:      "Screenshots captured for step logs.",
	})
	metricLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "element_lookups_total",
		Help:      "Single-shot element lookups by outcome.",
	}, []string{"kind", "result"})
	metricWaits = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "wait_seconds",
		Help:      "Time spent in polling waits by outcome.",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"outcome"})
)

const (
	LookupFound   = "found"
	LookupMissing = "missing"
	LookupError   = "error"

	WaitMet     = "met"
	WaitTimeout = "timeout"
	WaitError   = "error"
)

func RecordTest(status string, d time.Duration) {
	metricTests.WithLabelValues(status).Inc()
	metricTestDuration.Observe(d.Seconds())
}

func RecordStep(withScreenshot bool) {
	metricSteps.Inc()

	if withScreenshot {
		metricScreenshots.Inc()
	}
}

func RecordLookup(kind, result string) {
	metricLookups.WithLabelValues(kind, result).Inc()
}

func RecordWait(outcome string, d time.Duration) {
	metricWaits.WithLabelValues(outcome).Observe(d.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
