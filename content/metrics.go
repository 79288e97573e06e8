package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts how often the gateway had to fall back to local storage.
// A nil *Metrics records nothing.
type Metrics struct {
	RemoteFailures *prometheus.CounterVec
	FallbackReads  *prometheus.CounterVec
	FallbackWrites *prometheus.CounterVec
}

// NewMetrics registers the gateway counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RemoteFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteadmin",
				Name:      "remote_failures_total",
				Help:      "Remote store calls that failed",
			},
			[]string{"collection", "op"},
		),
		FallbackReads: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteadmin",
				Name:      "fallback_reads_total",
				Help:      "List calls served from local storage",
			},
			[]string{"collection", "reason"},
		),
		FallbackWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteadmin",
				Name:      "fallback_writes_total",
				Help:      "Writes that landed in local storage after a remote failure",
			},
			[]string{"collection", "op"},
		),
	}
}

func (m *Metrics) remoteFailure(c Collection, op string) {
	if m == nil {
		return
	}
	m.RemoteFailures.WithLabelValues(c.String(), op).Inc()
}

func (m *Metrics) fallbackRead(c Collection, reason string) {
	if m == nil {
		return
	}
	m.FallbackReads.WithLabelValues(c.String(), reason).Inc()
}

func (m *Metrics) fallbackWrite(c Collection, op string) {
	if m == nil {
		return
	}
	m.FallbackWrites.WithLabelValues(c.String(), op).Inc()
}
