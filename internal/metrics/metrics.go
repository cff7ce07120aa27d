package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"csvmap-service/internal/csvmap"
)

// Metrics holds the Prometheus collectors for mapping operations.
type Metrics struct {
	Records  prometheus.Counter
	Skipped  prometheus.Counter
	Failures *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csvmap_records_mapped_total",
		Help: "Total records produced by the mapper",
	})

	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csvmap_lines_skipped_total",
		Help: "Total header and blank lines skipped",
	})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csvmap_failures_total",
		Help: "Failed mapping operations by reason",
	}, []string{"reason"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csvmap_operation_duration_seconds",
		Help:    "Duration of mapping operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"op"})

	reg.MustRegister(records, skipped, failures, duration)

	return &Metrics{
		Records:  records,
		Skipped:  skipped,
		Failures: failures,
		Duration: duration,
	}
}

// Observe records the outcome of one operation.
func (m *Metrics) Observe(op string, st csvmap.Stats, dur time.Duration, err error) {
	m.Records.Add(float64(st.Records))
	m.Skipped.Add(float64(st.Skipped))
	m.Duration.WithLabelValues(op).Observe(dur.Seconds())
	if err != nil {
		m.Failures.WithLabelValues(Reason(err)).Inc()
	}
}

// Reason classifies err into a low-cardinality label value.
func Reason(err error) string {
	var (
		ioErr  *csvmap.IOError
		mapErr *csvmap.MappingError
	)
	switch {
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &mapErr):
		return "mapping"
	case errors.Is(err, csvmap.ErrUnsupportedKind):
		return "schema"
	default:
		return "other"
	}
}
