package observe

import (
	"strconv"
	"sync"
	"time"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "donp",
			Subsystem: "protocol",
			Name:      "transactions_total",
			Help:      "Protocol transactions by outcome.",
		},
		[]string{"device", "message", "outcome"},
	)
	runs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "donp",
			Subsystem: "protocol",
			Name:      "runs_total",
			Help:      "Completed protocol runs.",
		},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "donp",
			Subsystem: "protocol",
			Name:      "run_duration_seconds",
			Help:      "Protocol run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "donp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "donp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transactions, runs, runDuration, httpRequests, httpDuration)
	})
}

func RecordTransaction(device, message string, outcome protocol.Outcome) {
	RegisterMetrics()
	transactions.WithLabelValues(device, message, string(outcome)).Inc()
}

func RecordRun(duration time.Duration) {
	RegisterMetrics()
	runs.Inc()
	runDuration.Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// MetricsObserver feeds protocol runs into the Prometheus collectors.
type MetricsObserver struct{}

func (MetricsObserver) OnTransaction(result protocol.TransactionResult) {
	RecordTransaction(result.Device, result.Message, result.Outcome)
}

func (MetricsObserver) OnRunStarted(uuid.UUID, int) {}

func (MetricsObserver) OnRunCompleted(report *protocol.Report) {
	RecordRun(report.Duration)
}
