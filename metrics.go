package sender

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess         = "success"
	resultEncodingError   = "encoding_error"
	resultProtocolError   = "protocol_error"
	resultConnectionError = "connection_error"
	resultPartialRead     = "partial_read"
	resultCanceled        = "canceled"
)

// Metrics holds the prometheus collectors updated by a Sender after every Send.
type Metrics struct {
	sends     *prometheus.CounterVec
	processed prometheus.Counter
	failed    prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates the sender collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "zabbix_sender",
				Name:      "sends_total",
				Help:      "Sender data requests by result.",
			},
			[]string{"result"},
		),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zabbix_sender",
			Name:      "items_processed_total",
			Help:      "Items the server reported as processed.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zabbix_sender",
			Name:      "items_failed_total",
			Help:      "Items the server reported as failed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "zabbix_sender",
			Name:      "send_duration_seconds",
			Help:      "Duration of a complete sender data exchange in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.sends, m.processed, m.failed, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(resp Response, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(resultLabel(err)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if err == nil {
		m.processed.Add(float64(resp.Processed))
		m.failed.Add(float64(resp.Failed))
	}
}

func resultLabel(err error) string {
	var (
		encErr     *EncodingError
		protoErr   *ProtocolError
		partialErr *PartialReadError
	)
	switch {
	case err == nil:
		return resultSuccess
	case errors.As(err, &encErr):
		return resultEncodingError
	case errors.As(err, &protoErr):
		return resultProtocolError
	case errors.As(err, &partialErr):
		return resultPartialRead
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCanceled
	default:
		return resultConnectionError
	}
}
